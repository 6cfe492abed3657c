package serializer

import "github.com/ValentinKolb/maxstore/rpc/common"

// IRPCSerializer converts messages to and from bytes. Implementations are
// stateless and safe for concurrent use.
type IRPCSerializer interface {
	// Serialize encodes msg
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize decodes b into msg, overwriting every field of msg
	Deserialize(b []byte, msg *common.Message) error
}
