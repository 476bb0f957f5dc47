package pagination

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type row struct {
	ID   int64 `gorm:"primaryKey"`
	Kind string
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, Request{Page: 1, PageSize: DefaultPageSize}, Request{}.Normalize())
	assert.Equal(t, Request{Page: 3, PageSize: MaxPageSize}, Request{Page: 3, PageSize: 1000}.Normalize())
	assert.Equal(t, 40, Request{Page: 3, PageSize: 20}.Offset())
}

func TestPaginate(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&row{}))
	for i := 1; i <= 7; i++ {
		kind := "a"
		if i%2 == 0 {
			kind = "b"
		}
		require.NoError(t, db.Create(&row{ID: int64(i), Kind: kind}).Error)
	}

	ctx := context.Background()
	res, err := Paginate[row](ctx, db.Where("kind = ?", "a").Order("id desc"), Request{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Meta.TotalItems)
	assert.Equal(t, 2, res.Meta.TotalPages)
	require.Len(t, res.Data, 1)
	assert.Equal(t, int64(1), res.Data[0].ID)

	empty, err := Paginate[row](ctx, db.Where("kind = ?", "z"), Request{})
	require.NoError(t, err)
	assert.NotNil(t, empty.Data)
	assert.Equal(t, 0, empty.Meta.TotalPages)
}
