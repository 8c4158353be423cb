package protocol

import (
	"errors"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckHeaders(t *testing.T) {
	tests := []struct {
		name      string
		datastore string
		protocol  string
		wantField string
	}{
		{name: "equal", datastore: "1", protocol: "1"},
		{name: "server datastore newer", datastore: "2", protocol: "1", wantField: "datastore"},
		{name: "server datastore older", datastore: "0", protocol: "1", wantField: "datastore"},
		{name: "protocol differs", datastore: "1", protocol: "7", wantField: "protocol"},
		{name: "datastore missing", protocol: "1"},
		{name: "both missing"},
		{name: "protocol garbage", datastore: "1", protocol: "v1"},
		{name: "garbage datastore, differing protocol", datastore: "one", protocol: "2", wantField: "protocol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.datastore != "" {
				h.Set(HeaderDatastoreVersion, tt.datastore)
			}
			if tt.protocol != "" {
				h.Set(HeaderProtocolVersion, tt.protocol)
			}

			err := CheckHeaders(h)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, common.ErrVersionMismatch)
			var vm *VersionMismatchError
			require.True(t, errors.As(err, &vm))
			assert.Equal(t, tt.wantField, vm.Field)
		})
	}
}

func TestSetHeaders_RoundTripsThroughCheck(t *testing.T) {
	h := http.Header{}
	SetHeaders(h)
	assert.Equal(t, "1", h.Get(HeaderDatastoreVersion))
	require.NoError(t, CheckHeaders(h))
}
