// Package protocol defines the sync wire contract shared by the client and
// the server: compiled-in datastore/protocol versions, the headers that carry
// them, the version gate check, and the JSON bodies exchanged over HTTP.
//
// # Version gate
//
// Every sync exchange carries X-Peek-Datastore-Version and
// X-Peek-Protocol-Version. The server echoes its own values on every
// response and the client compares them with CheckHeaders using strict
// integer equality. There is no negotiation: any difference, in either
// direction, aborts the sync.
//
// # Timestamps
//
// Wire bodies carry created_at/updated_at as ISO-8601 strings; the local
// stores use epoch milliseconds. Conversion happens at the boundary with
// package timex.
package protocol
