package common

// UnknownOwner partitions uploads that arrive without an owner identifier.
const UnknownOwner = "UnknownUser"

// IVSize is the AES block size; every ciphertext blob starts with an IV of this length.
const IVSize = 16

// DefaultMaxMediaBytes caps audio and video uploads.
const DefaultMaxMediaBytes int64 = 10 << 20

// Rejection messages surfaced in ingestion outcomes.
const (
	MsgInvalidFileType   = "invalid file type"
	MsgFileEmpty         = "file is empty"
	MsgSizeLimitExceeded = "size limit exceeded"
	MsgNoData            = "file contains no data"
	MsgUnparsable        = "file could not be parsed"
	MsgServerError       = "server error while processing file"
	MsgNoFile            = "no file uploaded"
)
