package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPaginationDefaults(t *testing.T) {
	p := NewPagination(0, 0, 45)
	require.Equal(t, 1, p.Page)
	require.Equal(t, 20, p.PerPage)
	require.Equal(t, 45, p.Total)
	require.Equal(t, 3, p.TotalPages)
}

func TestNewPaginationExactDivision(t *testing.T) {
	p := NewPagination(2, 10, 40)
	require.Equal(t, 4, p.TotalPages)
	require.Equal(t, 10, p.Offset())
}

func TestNewPaginationEmptyResult(t *testing.T) {
	p := NewPagination(1, 20, 0)
	require.Equal(t, 0, p.TotalPages)
	require.Equal(t, 0, p.Offset())
}
