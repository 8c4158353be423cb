package protocol

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/peeksync/internal/common"
)

const (
	DatastoreVersion = 1
	ProtocolVersion  = 1

	HeaderDatastoreVersion = "X-Peek-Datastore-Version"
	HeaderProtocolVersion  = "X-Peek-Protocol-Version"
	HeaderClient           = "X-Peek-Client"
)

// VersionMismatchError describes which version differs.
type VersionMismatchError struct {
	Field  string // "datastore" or "protocol"
	Local  int
	Remote string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("%s version mismatch: server=%s, client=%d. Please update your app", e.Field, e.Remote, e.Local)
}

func (e *VersionMismatchError) Unwrap() error {
	return common.ErrVersionMismatch
}

// SetHeaders stamps the compiled-in versions onto h.
func SetHeaders(h http.Header) {
	h.Set(HeaderDatastoreVersion, strconv.Itoa(DatastoreVersion))
	h.Set(HeaderProtocolVersion, strconv.Itoa(ProtocolVersion))
}

// CheckHeaders compares the versions in h against the compiled-in ones.
// Only a header that parses to a different integer is a mismatch. A missing
// or unparsable header is ignored.
func CheckHeaders(h http.Header) error {
	if err := checkOne(h, HeaderDatastoreVersion, "datastore", DatastoreVersion); err != nil {
		return err
	}
	return checkOne(h, HeaderProtocolVersion, "protocol", ProtocolVersion)
}

func checkOne(h http.Header, header, field string, local int) error {
	raw := h.Get(header)
	v, err := strconv.Atoi(raw)
	if err != nil || v == local {
		return nil
	}
	return &VersionMismatchError{Field: field, Local: local, Remote: raw}
}
