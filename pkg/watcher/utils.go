package watcher

// trySend delivers value if ch has room and reports whether it did.
func trySend[T any](ch chan<- T, value T) bool {
	select {
	case ch <- value:
		return true
	default:
		return false
	}
}
