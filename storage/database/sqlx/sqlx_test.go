package sqlxrepos

import (
	"testing"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/coursehub/lms/core"
)

func Test_orderBy(t *testing.T) {
	tests := []struct {
		name     string
		ordering []core.DBOrdering
		want     string
	}{
		{name: "default", want: "created_at DESC"},
		{name: "single", ordering: []core.DBOrdering{{Field: "title", Ascending: true}}, want: "title ASC, id"},
		{
			name:     "many",
			ordering: []core.DBOrdering{{Field: "category", Ascending: true}, {Field: "price"}},
			want:     "category ASC, price DESC, id",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, orderBy(tc.ordering))
		})
	}
}

func Test_validUUIDs(t *testing.T) {
	ids := []string{"8a0c2b64-8d59-4c59-9c8f-0c4a1b2f6b55", "nope", "", "' OR 1=1 --"}
	assert.Equal(t, ids[:1], validUUIDs(ids))
}

func Test_pqCode(t *testing.T) {
	err := errors.Wrap(&pq.Error{Code: uniqueViolation}, "inserting user")
	assert.Equal(t, uniqueViolation, pqCode(err))
	assert.Equal(t, pq.ErrorCode(""), pqCode(errors.New("boom")))

	sErr := storageErr(errors.New("boom"), "selecting user")
	assert.Equal(t, core.KindStorage, core.KindOf(sErr))
	assert.Nil(t, storageErr(nil, "selecting user"))
}
