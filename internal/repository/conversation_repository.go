// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"deepchat-go/internal/model"

	"github.com/google/uuid"
)

// ErrConversationNotFound 表示会话不存在（或已被删除/清理）。
var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository 定义了会话存储的操作接口。
type ConversationRepository interface {
	Create(ctx context.Context) (*model.Conversation, error)
	GetOrCreate(ctx context.Context, id string) (*model.Conversation, error)
	Append(ctx context.Context, id string, message model.Message) error
	Get(ctx context.Context, id string) (*model.Conversation, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.ConversationSummary, error)
	EvictOlderThan(ctx context.Context, maxAge time.Duration) (int, error)
	// Acquire 获取单个会话的轮次锁。create 为 true 时会按该 id 创建缺失的会话。
	// 调用方必须调用 Session.Release。
	Acquire(ctx context.Context, id string, create bool) (Session, error)
}

// Session 是持有轮次锁期间对单个会话的独占视图。
// 同一会话上“读取后追加”的操作必须在 Session 内完成。
type Session interface {
	ID() string
	Messages() []model.Message
	Append(message model.Message)
	Snapshot() *model.Conversation
	Release()
}

// Option 配置内存仓库。
type Option func(*memoryConversationRepository)

// WithClock 替换时间来源，主要用于测试清理逻辑。
func WithClock(now func() time.Time) Option {
	return func(r *memoryConversationRepository) {
		r.now = now
	}
}

// entry 保存一个会话。turn 是容量为 1 的信号量，串行化同一会话上的请求；
// mu 只保护数据本身，因此读取不会被进行中的 LLM 调用阻塞。
type entry struct {
	turn    chan struct{}
	mu      sync.RWMutex
	conv    model.Conversation
	removed bool
}

func newEntry(id string, now time.Time) *entry {
	return &entry{
		turn: make(chan struct{}, 1),
		conv: model.Conversation{
			ID:          id,
			Messages:    []model.Message{},
			CreatedAt:   now,
			LastUpdated: now,
		},
	}
}

func (e *entry) tryLock() bool {
	select {
	case e.turn <- struct{}{}:
		return true
	default:
		return false
	}
}

func (e *entry) lock(ctx context.Context) error {
	select {
	case e.turn <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *entry) unlock() {
	<-e.turn
}

// snapshot 返回会话的深拷贝，调用方需持有 mu 的读锁。
func (e *entry) snapshot() *model.Conversation {
	conv := e.conv
	conv.Messages = append([]model.Message(nil), e.conv.Messages...)
	if conv.Messages == nil {
		conv.Messages = []model.Message{}
	}
	return &conv
}

type memoryConversationRepository struct {
	mu    sync.RWMutex
	items map[string]*entry
	now   func() time.Time
}

// NewConversationRepository 创建一个新的内存 ConversationRepository 实例。
func NewConversationRepository(opts ...Option) ConversationRepository {
	r := &memoryConversationRepository{
		items: make(map[string]*entry),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create 生成新的会话 ID 并插入一个空会话。
func (r *memoryConversationRepository) Create(ctx context.Context) (*model.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	for r.items[id] != nil {
		id = uuid.NewString()
	}
	e := newEntry(id, r.now())
	r.items[id] = e
	return e.snapshot(), nil
}

// GetOrCreate 返回已有会话；不存在时按给定 id 创建。
func (r *memoryConversationRepository) GetOrCreate(ctx context.Context, id string) (*model.Conversation, error) {
	e, err := r.lookup(id, true)
	if err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot(), nil
}

// Append 在会话的轮次锁内追加一条消息。
func (r *memoryConversationRepository) Append(ctx context.Context, id string, message model.Message) error {
	sess, err := r.Acquire(ctx, id, false)
	if err != nil {
		return err
	}
	defer sess.Release()
	sess.Append(message)
	return nil
}

// Get 返回会话快照。
func (r *memoryConversationRepository) Get(ctx context.Context, id string) (*model.Conversation, error) {
	e, err := r.lookup(id, false)
	if err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.removed {
		return nil, ErrConversationNotFound
	}
	return e.snapshot(), nil
}

// Delete 删除会话。会等待进行中的轮次结束，重复删除返回 ErrConversationNotFound。
func (r *memoryConversationRepository) Delete(ctx context.Context, id string) error {
	e, err := r.lookup(id, false)
	if err != nil {
		return err
	}
	if err := e.lock(ctx); err != nil {
		return err
	}
	defer e.unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.items[id] != e {
		return ErrConversationNotFound
	}
	delete(r.items, id)

	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()
	return nil
}

// List 返回所有会话的摘要，顺序不保证。
func (r *memoryConversationRepository) List(ctx context.Context) ([]model.ConversationSummary, error) {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.items))
	for _, e := range r.items {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	summaries := make([]model.ConversationSummary, 0, len(entries))
	for _, e := range entries {
		e.mu.RLock()
		if !e.removed {
			summaries = append(summaries, model.ConversationSummary{
				ID:           e.conv.ID,
				CreatedAt:    e.conv.CreatedAt,
				LastUpdated:  e.conv.LastUpdated,
				MessageCount: len(e.conv.Messages),
				FirstMessage: e.conv.FirstUserMessage(),
			})
		}
		e.mu.RUnlock()
	}
	return summaries, nil
}

// EvictOlderThan 删除 LastUpdated 早于 now-maxAge 的会话并返回删除数量。
// 正在进行轮次的会话不会被删除。
func (r *memoryConversationRepository) EvictOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := r.now().Add(-maxAge)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, e := range r.items {
		if !e.tryLock() {
			continue
		}
		e.mu.Lock()
		if e.conv.LastUpdated.Before(cutoff) {
			e.removed = true
			delete(r.items, id)
			removed++
		}
		e.mu.Unlock()
		e.unlock()
	}
	return removed, nil
}

// Acquire 获取会话的轮次锁，等待期间可被 ctx 取消。
func (r *memoryConversationRepository) Acquire(ctx context.Context, id string, create bool) (Session, error) {
	for {
		e, err := r.lookup(id, create)
		if err != nil {
			return nil, err
		}
		if err := e.lock(ctx); err != nil {
			return nil, err
		}

		e.mu.RLock()
		removed := e.removed
		e.mu.RUnlock()
		if !removed {
			return &session{entry: e, now: r.now}, nil
		}
		// 等待期间会话被删除：释放后重新查找
		e.unlock()
		if !create {
			return nil, ErrConversationNotFound
		}
	}
}

func (r *memoryConversationRepository) lookup(id string, create bool) (*entry, error) {
	r.mu.RLock()
	e := r.items[id]
	r.mu.RUnlock()
	if e != nil {
		return e, nil
	}
	if !create {
		return nil, ErrConversationNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e = r.items[id]; e == nil {
		e = newEntry(id, r.now())
		r.items[id] = e
	}
	return e, nil
}

type session struct {
	entry *entry
	now   func() time.Time
	once  sync.Once
}

func (s *session) ID() string {
	return s.entry.conv.ID
}

func (s *session) Messages() []model.Message {
	s.entry.mu.RLock()
	defer s.entry.mu.RUnlock()
	return append([]model.Message(nil), s.entry.conv.Messages...)
}

// Append 追加消息并刷新 LastUpdated。
func (s *session) Append(message model.Message) {
	s.entry.mu.Lock()
	defer s.entry.mu.Unlock()
	s.entry.conv.Messages = append(s.entry.conv.Messages, message)
	s.entry.conv.LastUpdated = s.now()
}

func (s *session) Snapshot() *model.Conversation {
	s.entry.mu.RLock()
	defer s.entry.mu.RUnlock()
	return s.entry.snapshot()
}

func (s *session) Release() {
	s.once.Do(s.entry.unlock)
}
