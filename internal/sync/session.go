// Package sync 实现笔记实时同步引擎
// 每个客户端对每个打开的笔记持有一个 Session：订阅变更流维护权威副本，
// 本地编辑经防抖窗口合并后以整文档替换方式提交（last-writer-wins）
package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/notewave/collab-note-service/internal/domain"
	"github.com/notewave/collab-note-service/internal/store"
	"github.com/notewave/collab-note-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"
)

// DefaultDebounceInterval 默认防抖提交延迟
const DefaultDebounceInterval = time.Second

// 会话错误
var (
	// ErrNotSubscribed 会话尚未订阅或已注销
	ErrNotSubscribed = errors.New("sync: session not subscribed")
	// ErrSessionErrored 订阅流已进入错误态
	ErrSessionErrored = errors.New("sync: session errored")
	// ErrEditDenied 当前权限不允许编辑
	ErrEditDenied = errors.New("sync: permission denies editing")
)

// State 订阅状态机
type State int32

const (
	StateUnsubscribed State = iota
	StateSyncing
	StateLive
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateSyncing:
		return "syncing"
	case StateLive:
		return "live"
	case StateErrored:
		return "errored"
	default:
		return "unsubscribed"
	}
}

// SaveStatus 本地提交状态
type SaveStatus int32

const (
	SaveIdle SaveStatus = iota
	SaveSaving
	SaveSaved
)

func (s SaveStatus) String() string {
	switch s {
	case SaveSaving:
		return "saving"
	case SaveSaved:
		return "saved"
	default:
		return "idle"
	}
}

// Viewer 会话所属的用户身份
type Viewer struct {
	UID   string
	Email string
}

// Snapshot 推送给客户端的会话视图
type Snapshot struct {
	SessionID  string            `json:"sessionId"`
	NoteID     string            `json:"noteId"`
	State      string            `json:"state"`
	SaveStatus string            `json:"saveStatus"`
	Permission domain.Permission `json:"permission"`
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Note       *domain.Note      `json:"note,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Config 会话配置
type Config struct {
	// DebounceInterval 防抖提交延迟，零值取 DefaultDebounceInterval
	DebounceInterval time.Duration
}

// Session 单个笔记的同步会话
type Session struct {
	id       string
	noteID   string
	viewer   Viewer
	store    store.Store
	logger   *zap.Logger
	onUpdate func(Snapshot)
	debounce time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      State
	saveStatus SaveStatus
	note       *domain.Note
	permission domain.Permission

	workingTitle   string
	workingContent string
	// lastCommitted 上次成功提交的快照，用于区分回声与真正的外来更新
	lastCommittedTitle   string
	lastCommittedContent string
	// pending 防抖提交在途时发送出去的内容
	pendingTitle   string
	pendingContent string

	timer  *time.Timer
	sub    store.Subscription
	err    error
	closed bool

	wg sync.WaitGroup
}

// NewSession 创建会话，onUpdate 在每次状态变化后被调用（已脱离内部锁）
func NewSession(st store.Store, noteID string, viewer Viewer, cfg Config, log *zap.Logger, onUpdate func(Snapshot)) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	debounce := cfg.DebounceInterval
	if debounce <= 0 {
		debounce = DefaultDebounceInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:       uuid.New().String(),
		noteID:   noteID,
		viewer:   viewer,
		store:    st,
		logger:   log,
		onUpdate: onUpdate,
		debounce: debounce,
		ctx:      ctx,
		cancel:   cancel,
		state:    StateUnsubscribed,
	}
}

// ID 会话标识
func (s *Session) ID() string {
	return s.id
}

// NoteID 会话绑定的笔记
func (s *Session) NoteID() string {
	return s.noteID
}

// Subscribe 建立变更订阅，进入 Syncing，首个事件到达后转 Live
func (s *Session) Subscribe(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrNotSubscribed
	}
	if s.state != StateUnsubscribed {
		s.mu.Unlock()
		return errors.New("sync: session already subscribed")
	}

	sub, err := s.store.Subscribe(ctx, store.Query{NoteID: s.noteID})
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.sub = sub
	s.state = StateSyncing
	snap := s.snapshotLocked()
	s.mu.Unlock()

	metricActiveSessions.Inc()

	s.wg.Add(1)
	go s.eventLoop(sub)

	s.emit(snap)
	return nil
}

// eventLoop 消费变更流直到订阅取消
func (s *Session) eventLoop(sub store.Subscription) {
	defer s.wg.Done()
	for ev := range sub.C() {
		s.handleEvent(ev)
	}
}

func (s *Session) handleEvent(ev store.Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	if ev.Err != nil {
		// 订阅流错误：对视图而言等同于"不存在或无权访问"，终态
		s.state = StateErrored
		s.err = ev.Err
		metricFeedEvents.WithLabelValues("error").Inc()
		s.logger.Warn("note feed errored",
			zap.String(logger.FieldSessionID, s.id),
			zap.String(logger.FieldNoteID, s.noteID),
			zap.Error(ev.Err))
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.emit(snap)
		return
	}

	if len(ev.Notes) == 0 {
		s.state = StateErrored
		s.err = store.ErrNotFound
		metricFeedEvents.WithLabelValues("error").Inc()
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.emit(snap)
		return
	}

	n := ev.Notes[0]
	s.permission = domain.ResolvePermission(n, s.viewer.UID, s.viewer.Email)

	if s.state == StateSyncing {
		// 首个快照：填充权威副本与工作副本
		s.state = StateLive
		s.note = n
		s.workingTitle = n.Title
		s.workingContent = n.Content
		s.lastCommittedTitle = n.Title
		s.lastCommittedContent = n.Content
		metricFeedEvents.WithLabelValues("initial").Inc()
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.emit(snap)
		return
	}

	if s.saveStatus == SaveSaving {
		// 本地提交在途：不应用远端状态，避免编辑中的内容被覆盖
		metricFeedEvents.WithLabelValues("ignored_while_saving").Inc()
		s.mu.Unlock()
		return
	}

	s.note = n

	if n.Title == s.lastCommittedTitle && n.Content == s.lastCommittedContent {
		// 自己写入的回声，工作副本不动
		metricFeedEvents.WithLabelValues("echo").Inc()
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.emit(snap)
		return
	}

	// 外来更新：整文档覆盖工作副本，不做合并（last-writer-wins）
	if s.workingTitle != s.lastCommittedTitle || s.workingContent != s.lastCommittedContent {
		s.logDiscardedEdits(n)
		metricDiscardedEdits.Inc()
	}
	s.workingTitle = n.Title
	s.workingContent = n.Content
	s.lastCommittedTitle = n.Title
	s.lastCommittedContent = n.Content
	metricFeedEvents.WithLabelValues("foreign").Inc()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snap)
}

// logDiscardedEdits 记录被外来提交覆盖的本地未提交内容
func (s *Session) logDiscardedEdits(incoming *domain.Note) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(s.workingContent, incoming.Content, false)
	s.logger.Info("uncommitted local edits overwritten by foreign commit",
		zap.String(logger.FieldSessionID, s.id),
		zap.String(logger.FieldNoteID, s.noteID),
		zap.String(logger.FieldUID, s.viewer.UID),
		zap.String("contentDiff", dmp.DiffPrettyText(diffs)))
}

// Edit 记录一次本地编辑：立即更新工作副本并重置防抖计时器
// 权限不足时拒绝，防抖/提交路径不会被触发
func (s *Session) Edit(title string, content string) error {
	s.mu.Lock()
	if s.closed || s.state == StateUnsubscribed {
		s.mu.Unlock()
		return ErrNotSubscribed
	}
	if s.state == StateErrored {
		s.mu.Unlock()
		return ErrSessionErrored
	}
	if !s.permission.CanEdit() {
		s.mu.Unlock()
		return ErrEditDenied
	}

	s.workingTitle = title
	s.workingContent = content
	s.saveStatus = SaveSaving

	if s.timer == nil {
		s.timer = time.AfterFunc(s.debounce, s.flush)
	} else {
		// 防抖：窗口内的连续编辑只触发最后一次提交
		if s.timer.Stop() {
			metricEditsCoalesced.Inc()
		}
		s.timer.Reset(s.debounce)
	}

	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snap)
	return nil
}

// flush 防抖窗口到期，提交整份 title+content
func (s *Session) flush() {
	s.mu.Lock()
	if s.closed || s.saveStatus != SaveSaving {
		s.mu.Unlock()
		return
	}
	s.pendingTitle = s.workingTitle
	s.pendingContent = s.workingContent
	title, content := s.pendingTitle, s.pendingContent
	s.mu.Unlock()

	err := s.store.UpdateFields(s.ctx, s.noteID, map[string]any{
		"title":   title,
		"content": content,
	})

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	if err != nil {
		// 提交失败：回到 idle，工作副本保留，不自动重试
		metricCommits.WithLabelValues("error").Inc()
		s.saveStatus = SaveIdle
		s.err = err
		s.logger.Error("note commit failed",
			zap.String(logger.FieldSessionID, s.id),
			zap.String(logger.FieldNoteID, s.noteID),
			zap.Error(err))
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.emit(snap)
		return
	}

	metricCommits.WithLabelValues("ok").Inc()
	s.err = nil
	s.lastCommittedTitle = title
	s.lastCommittedContent = content
	// 提交期间又有新编辑时保持 saving，等下一次防抖窗口
	if s.workingTitle == title && s.workingContent == content {
		s.saveStatus = SaveSaved
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snap)
}

// Unsubscribe 注销会话：同步取消订阅并阻止任何待触发的防抖提交
func (s *Session) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.state = StateUnsubscribed
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	s.cancel()
	if sub != nil {
		sub.Unsubscribe()
		metricActiveSessions.Dec()
	}
	s.wg.Wait()
}

// Snapshot 当前会话视图
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Permission 当前解析出的有效权限
func (s *Session) Permission() domain.Permission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permission
}

// State 当前订阅状态
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SaveStatus 当前提交状态
func (s *Session) SaveStatus() SaveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveStatus
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:  s.id,
		NoteID:     s.noteID,
		State:      s.state.String(),
		SaveStatus: s.saveStatus.String(),
		Permission: s.permission,
		Title:      s.workingTitle,
		Content:    s.workingContent,
	}
	if s.note != nil {
		snap.Note = s.note.Clone()
	}
	if s.err != nil {
		snap.Error = s.err.Error()
	}
	return snap
}

func (s *Session) emit(snap Snapshot) {
	if s.onUpdate != nil {
		s.onUpdate(snap)
	}
}
