package vehicles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memRepo struct {
	nextID   int64
	vehicles map[int64]*Vehicle
}

func newMemRepo() *memRepo {
	return &memRepo{vehicles: make(map[int64]*Vehicle)}
}

func (r *memRepo) Create(ctx context.Context, in VehicleInput) (*Vehicle, error) {
	r.nextID++
	v := &Vehicle{
		ID:         r.nextID,
		CustomerID: in.CustomerID,
		PlateNo:    in.PlateNo,
		VIN:        in.VIN,
		Model:      in.Model,
		DriveType:  in.DriveType,
	}
	r.vehicles[v.ID] = v
	return v, nil
}

func (r *memRepo) Get(ctx context.Context, id int64) (*Vehicle, error) {
	v, ok := r.vehicles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (r *memRepo) List(ctx context.Context, req ListRequest) ([]Vehicle, int, error) {
	var out []Vehicle
	for _, v := range r.vehicles {
		if req.CustomerID > 0 && v.CustomerID != req.CustomerID {
			continue
		}
		out = append(out, *v)
	}
	return out, len(out), nil
}

func (r *memRepo) Update(ctx context.Context, id int64, in VehicleInput) (*Vehicle, error) {
	v, ok := r.vehicles[id]
	if !ok {
		return nil, ErrNotFound
	}
	v.CustomerID, v.PlateNo, v.VIN, v.Model, v.DriveType = in.CustomerID, in.PlateNo, in.VIN, in.Model, in.DriveType
	return v, nil
}

func (r *memRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.vehicles[id]; !ok {
		return ErrNotFound
	}
	delete(r.vehicles, id)
	return nil
}

func TestCreateValidation(t *testing.T) {
	s := NewService(newMemRepo())
	ctx := context.Background()

	_, err := s.Create(ctx, VehicleInput{Model: "CB650R"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Create(ctx, VehicleInput{CustomerID: 1})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Create(ctx, VehicleInput{CustomerID: 1, Model: "CB650R", DriveType: "ROPE"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateDefaultsDriveType(t *testing.T) {
	s := NewService(newMemRepo())
	v, err := s.Create(context.Background(), VehicleInput{CustomerID: 1, Model: "XMAX300"})
	require.NoError(t, err)
	require.Equal(t, DriveChain, v.DriveType)
}

func TestListFiltersByCustomer(t *testing.T) {
	s := NewService(newMemRepo())
	ctx := context.Background()

	_, err := s.Create(ctx, VehicleInput{CustomerID: 1, Model: "CB650R", DriveType: DriveChain})
	require.NoError(t, err)
	_, err = s.Create(ctx, VehicleInput{CustomerID: 2, Model: "XMAX300", DriveType: DriveBelt})
	require.NoError(t, err)

	owned, total, err := s.List(ctx, ListRequest{CustomerID: 2})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "XMAX300", owned[0].Model)
}

func TestIdent(t *testing.T) {
	require.Equal(t, "서울12가3456", Vehicle{PlateNo: "서울12가3456", VIN: "VIN123"}.Ident())
	require.Equal(t, "VIN123", Vehicle{VIN: "VIN123"}.Ident())
	require.Equal(t, "-", Vehicle{}.Ident())
}
