package autodecode

const (
	topicData  = "data"
	topicError = "error"
	topicEnd   = "end"
)

// Handlers receive the output of a Stream. Nil handlers are skipped. Every
// stream publishes either one error or one end, never both.
type Handlers struct {
	OnData  func(text string)
	OnError func(err error)
	OnEnd   func()
}

// Subscribe registers h. Text that was published before the call is not
// replayed, so subscribe before writing.
func (s *Stream) Subscribe(h Handlers) error {
	if h.OnData != nil {
		if err := s.bus.Subscribe(topicData, h.OnData); err != nil {
			return err
		}
	}
	if h.OnError != nil {
		if err := s.bus.SubscribeOnce(topicError, h.OnError); err != nil {
			return err
		}
	}
	if h.OnEnd != nil {
		if err := s.bus.SubscribeOnce(topicEnd, h.OnEnd); err != nil {
			return err
		}
	}
	return nil
}
