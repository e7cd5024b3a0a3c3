// Package file appends trades to a JSON-lines log.
package file

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/PxPatel/clob-exchange/internal/storage"
	"github.com/PxPatel/clob-exchange/internal/types"
)

// TradeStore implements storage.TradeStore as an append-only log. Writes are
// queued to a single writer goroutine so the matching path never waits on
// disk, and lines keep submission order. Reads return nothing; pair it with
// a memory store in a CompositeTradeStore and warm that store with Replay.
type TradeStore struct {
	path  string
	file  *os.File
	queue chan []*types.Trade
	done  chan struct{}

	mu     sync.Mutex // guards closed and sends on queue
	closed bool

	errMu sync.Mutex
	err   error // first write error, reported by Close
}

var _ storage.TradeStore = (*TradeStore)(nil)

// NewTradeStore opens (or creates) the log at path
func NewTradeStore(path string) (*TradeStore, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trade log: %w", err)
	}
	s := &TradeStore{
		path:  path,
		file:  f,
		queue: make(chan []*types.Trade, 1024),
		done:  make(chan struct{}),
	}
	go s.writeLoop()
	return s, nil
}

func (s *TradeStore) writeLoop() {
	defer close(s.done)
	enc := json.NewEncoder(s.file)
	for batch := range s.queue {
		for _, t := range batch {
			if err := enc.Encode(t); err != nil {
				s.errMu.Lock()
				if s.err == nil {
					s.err = err
				}
				s.errMu.Unlock()
			}
		}
	}
}

func (s *TradeStore) Save(trade *types.Trade) error {
	return s.SaveBatch([]*types.Trade{trade})
}

func (s *TradeStore) SaveBatch(trades []*types.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	batch := make([]*types.Trade, len(trades))
	for i, t := range trades {
		c := *t
		batch[i] = &c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("trade log %s is closed", s.path)
	}
	s.queue <- batch
	return nil
}

func (s *TradeStore) GetRecent(string, int) ([]*types.Trade, error) {
	return []*types.Trade{}, nil
}

// Close drains pending writes, syncs and closes the file
func (s *TradeStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
	syncErr := s.file.Sync()
	closeErr := s.file.Close()

	s.errMu.Lock()
	defer s.errMu.Unlock()
	for _, err := range []error{s.err, syncErr, closeErr} {
		if err != nil {
			return err
		}
	}
	return nil
}

// Replay reads the log at path in write order. A missing file replays
// nothing.
func Replay(path string, fn func(*types.Trade) error) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var t types.Trade
		if err := json.Unmarshal(sc.Bytes(), &t); err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if err := fn(&t); err != nil {
			return err
		}
	}
	return sc.Err()
}
