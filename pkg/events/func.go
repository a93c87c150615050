package events

type HandlerFunc func(event Event)

func (f HandlerFunc) Handle(event Event) {
	f(event)
}

type NoopHandler struct{}

func (NoopHandler) Handle(Event) {}

// Tee fans an event out to every handler in order.
func Tee(handlers ...Handler) Handler {
	return HandlerFunc(func(event Event) {
		for _, h := range handlers {
			if h != nil {
				h.Handle(event)
			}
		}
	})
}
