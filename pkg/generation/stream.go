package generation

import "iter"

// ChunkSource is the shape of the SDK server-sent-event streams returned by
// the vendor clients.
type ChunkSource[T any] interface {
	Next() bool
	Current() T
	Err() error
	Close() error
}

// chunkStream adapts a ChunkSource to FragmentStream.
type chunkStream[T any] struct {
	src  ChunkSource[T]
	text func(T) string
	cur  string
}

// FromChunks wraps an SDK stream. text extracts the answer text carried by one
// chunk; chunks without text yield empty fragments.
func FromChunks[T any](src ChunkSource[T], text func(T) string) FragmentStream {
	return &chunkStream[T]{src: src, text: text}
}

func (s *chunkStream[T]) Next() bool {
	if !s.src.Next() {
		s.cur = ""
		return false
	}
	s.cur = s.text(s.src.Current())
	return true
}

func (s *chunkStream[T]) Fragment() string { return s.cur }
func (s *chunkStream[T]) Err() error       { return s.src.Err() }
func (s *chunkStream[T]) Close() error     { return s.src.Close() }

// seqStream adapts a push iterator to FragmentStream via iter.Pull2.
type seqStream[T any] struct {
	next func() (T, error, bool)
	stop func()
	text func(T) string
	cur  string
	err  error
}

// FromSeq wraps an iter.Seq2 producer such as the genai streaming API.
func FromSeq[T any](seq iter.Seq2[T, error], text func(T) string) FragmentStream {
	next, stop := iter.Pull2(seq)
	return &seqStream[T]{next: next, stop: stop, text: text}
}

func (s *seqStream[T]) Next() bool {
	if s.err != nil {
		return false
	}
	v, err, ok := s.next()
	if !ok {
		s.cur = ""
		return false
	}
	if err != nil {
		s.err = err
		s.cur = ""
		return false
	}
	s.cur = s.text(v)
	return true
}

func (s *seqStream[T]) Fragment() string { return s.cur }
func (s *seqStream[T]) Err() error       { return s.err }

func (s *seqStream[T]) Close() error {
	s.stop()
	return nil
}

// SliceStream replays fixed fragments followed by an optional terminal error.
type SliceStream struct {
	fragments []string
	err       error
	pos       int
	closed    bool
}

// NewSliceStream creates a stream over fragments. A non-nil err is reported
// after the last fragment.
func NewSliceStream(fragments []string, err error) *SliceStream {
	return &SliceStream{fragments: fragments, err: err, pos: -1}
}

// Next advances to the next fragment.
func (s *SliceStream) Next() bool {
	if s.closed || s.pos+1 >= len(s.fragments) {
		s.pos = len(s.fragments)
		return false
	}
	s.pos++
	return true
}

// Fragment returns the current fragment.
func (s *SliceStream) Fragment() string {
	if s.pos < 0 || s.pos >= len(s.fragments) {
		return ""
	}
	return s.fragments[s.pos]
}

// Err returns the terminal error once the fragments are exhausted.
func (s *SliceStream) Err() error {
	if s.pos >= len(s.fragments) {
		return s.err
	}
	return nil
}

// Close marks the stream closed.
func (s *SliceStream) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *SliceStream) Closed() bool {
	return s.closed
}
