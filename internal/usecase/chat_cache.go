package usecase

import (
	"context"
	"sync"

	"shoplink/internal/domain/entity"
	"shoplink/pkg/logger"
)

// Cache tags for targeted invalidation. Invalidating a tag marks the
// query stale so the next read refetches; nothing is patched by hand.
const TagThreadList = "thread-list"

func TagMessages(threadID string) string {
	return "messages::" + threadID
}

type ThreadFetcher func(ctx context.Context) ([]entity.Thread, error)
type MessageFetcher func(ctx context.Context, threadID string) ([]entity.Message, error)

// FetchPolicy is the declarative "should this query run" predicate that
// replaces scattered skip flags. A nil Visible means always fetch.
type FetchPolicy struct {
	Visible func() bool
}

func (p FetchPolicy) visible() bool {
	return p.Visible == nil || p.Visible()
}

type messagePage struct {
	messages []entity.Message
	loaded   bool
	stale    bool
	err      error
}

// ChatCache is the query-keyed cache of threads and message pages.
// AppendIfAbsent is the idempotency boundary that makes duplicate
// delivery of the same realtime event safe.
type ChatCache struct {
	mu            sync.Mutex
	fetchThreads  ThreadFetcher
	fetchMessages MessageFetcher
	policy        FetchPolicy

	threads       []entity.Thread
	threadsLoaded bool
	threadsStale  bool
	pages         map[string]*messagePage
}

func NewChatCache(threads ThreadFetcher, messages MessageFetcher, policy FetchPolicy) *ChatCache {
	return &ChatCache{
		fetchThreads:  threads,
		fetchMessages: messages,
		policy:        policy,
		pages:         make(map[string]*messagePage),
	}
}

// Threads returns the thread list, fetching lazily on first read or
// after invalidation.
func (c *ChatCache) Threads(ctx context.Context) ([]entity.Thread, error) {
	c.mu.Lock()
	needFetch := (!c.threadsLoaded || c.threadsStale) && c.policy.visible()
	c.mu.Unlock()

	if needFetch && c.fetchThreads != nil {
		threads, err := c.fetchThreads(ctx)
		c.mu.Lock()
		if err != nil {
			c.mu.Unlock()
			return nil, err
		}
		c.threads = threads
		c.threadsLoaded = true
		c.threadsStale = false
		c.mu.Unlock()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]entity.Thread(nil), c.threads...), nil
}

// Messages returns the cached page for a thread, fetching lazily. The
// fetch is skipped when the thread id is empty or the owning view is not
// visible; in that case the current snapshot is returned as-is. A failed
// fetch surfaces its error and is not retried automatically.
func (c *ChatCache) Messages(ctx context.Context, threadID string) ([]entity.Message, error) {
	if threadID == "" || !c.policy.visible() {
		return c.Snapshot(threadID), nil
	}

	c.mu.Lock()
	page := c.page(threadID)
	needFetch := !page.loaded || page.stale
	c.mu.Unlock()

	if needFetch && c.fetchMessages != nil {
		messages, err := c.fetchMessages(ctx, threadID)
		c.mu.Lock()
		page = c.page(threadID)
		if err != nil {
			page.err = err
			c.mu.Unlock()
			return nil, err
		}
		// Refetching must not lose locally-submitted pending entries
		// that have no server copy yet.
		var pendings []entity.Message
		for _, m := range page.messages {
			if m.Pending {
				pendings = append(pendings, m)
			}
		}
		page.messages = messages
		for _, p := range pendings {
			if !containsMessage(page.messages, p.ID) {
				page.messages = append(page.messages, p)
			}
		}
		page.loaded = true
		page.stale = false
		page.err = nil
		c.mu.Unlock()
	}

	return c.Snapshot(threadID), nil
}

// FetchError returns the error from the thread's last failed page fetch,
// cleared by the next successful one. It lets a view show a loading-error
// state without re-triggering the fetch.
func (c *ChatCache) FetchError(threadID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	page, ok := c.pages[threadID]
	if !ok {
		return nil
	}
	return page.err
}

// Snapshot returns the current cached page without fetching.
func (c *ChatCache) Snapshot(threadID string) []entity.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	page, ok := c.pages[threadID]
	if !ok {
		return nil
	}
	return append([]entity.Message(nil), page.messages...)
}

// AppendIfAbsent inserts a message into the thread's cached page unless a
// message with the same id is already present. Reports whether the
// message was inserted.
func (c *ChatCache) AppendIfAbsent(threadID string, msg entity.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	page := c.page(threadID)
	if containsMessage(page.messages, msg.ID) {
		logger.Debug("cache: duplicate message %s dropped", msg.ID)
		return false
	}
	page.messages = append(page.messages, msg)
	return true
}

// Confirm reconciles a pending local echo with its server-confirmed
// copy: the pending entry is replaced in place, or simply removed when
// the confirmed message already arrived through the realtime channel.
func (c *ChatCache) Confirm(threadID, pendingID string, confirmed entity.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	page := c.page(threadID)
	alreadyPresent := containsMessage(page.messages, confirmed.ID)

	kept := page.messages[:0]
	replaced := false
	for _, m := range page.messages {
		if m.ID == pendingID && m.Pending {
			if !alreadyPresent && !replaced {
				kept = append(kept, confirmed)
				replaced = true
			}
			continue
		}
		kept = append(kept, m)
	}
	page.messages = kept

	if !alreadyPresent && !replaced {
		page.messages = append(page.messages, confirmed)
	}
}

// Remove drops a message from the cached page, used to roll back an
// optimistic echo after a failed submission.
func (c *ChatCache) Remove(threadID, messageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	page := c.page(threadID)
	kept := page.messages[:0]
	for _, m := range page.messages {
		if m.ID != messageID {
			kept = append(kept, m)
		}
	}
	page.messages = kept
}

// Invalidate marks the query behind the tag stale, forcing a refetch on
// the next read. Unrelated queries are untouched.
func (c *ChatCache) Invalidate(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if tag == TagThreadList {
		c.threadsStale = true
		return
	}
	for threadID, page := range c.pages {
		if TagMessages(threadID) == tag {
			page.stale = true
		}
	}
}

// page returns the page for a thread, creating it empty if needed. Caller
// must hold the lock.
func (c *ChatCache) page(threadID string) *messagePage {
	page, ok := c.pages[threadID]
	if !ok {
		page = &messagePage{}
		c.pages[threadID] = page
	}
	return page
}

func containsMessage(messages []entity.Message, id string) bool {
	for _, m := range messages {
		if m.ID == id {
			return true
		}
	}
	return false
}
