package sdgram

// Transport is the byte link a Net runs on.
//
// Available and Read must not block. Read returns at most len(p) bytes that
// have already arrived and (0, nil) when there are none. Write may accept
// fewer bytes than given; the sender retries the remainder. Errors from any
// method are treated as link failures and returned to the caller unmodified.
type Transport interface {
	Available() (int, error)
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}
