package app

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/notewave/collab-note-service/global"
	"github.com/notewave/collab-note-service/pkg/code"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/lxzan/gws"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type LogType string

const (
	WebSocketServerPingInterval         = 25
	WebSocketServerPingWait             = 40
	LogInfo                     LogType = "info"
	LogError                    LogType = "error"
	LogWarn                     LogType = "warn"
)

func log(t LogType, msg string, fields ...zap.Field) {

	if t == "error" {
		global.Logger.Error(msg, fields...)
	} else if t == "warn" {
		global.Logger.Warn(msg, fields...)
	} else if t == "info" {
		global.Logger.Info(msg, fields...)
	}
}

// WebSocketMessage 一条客户端消息，格式为 "Action|{json}"
type WebSocketMessage struct {
	Type string `json:"type"` // 操作类型，例如 "NoteSubscribe", "NoteEdit"
	Data []byte `json:"data"` // 消息负载
}

type WebsocketServerConfig struct {
	GWSOption    gws.ServerOption
	PingInterval time.Duration
	PingWait     time.Duration
}

// UserSelectEntity represents the user data loaded during authorization.
type UserSelectEntity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

// WebsocketClient 结构体来存储每个 WebSocket 连接及其相关状态
type WebsocketClient struct {
	conn        *gws.Conn
	done        chan struct{}
	Ctx         *gin.Context
	User        *UserEntity
	UserClients *ConnStorage
	SF          *singleflight.Group // 用于处理并发请求的缓存

	// Vault 连接级状态存放处，由路由层使用（例如同步会话）
	Vault sync.Map
}

// 基于全局验证器的 WebSocket 版本参数绑定和验证工具函数
func (c *WebsocketClient) BindAndValid(data []byte, obj any) (bool, ValidErrors) {
	var errs ValidErrors

	if err := sonic.Unmarshal(data, obj); err != nil {
		// 解码错误处理
		errs = append(errs, &ValidError{
			Key:     "body",
			Message: "Invalid message format",
		})
		return false, errs
	}

	if err := global.Validator.Validate.Struct(obj); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			trans, _ := c.Ctx.Value("trans").(ut.Translator)
			for _, validationErr := range validationErrors {
				message := validationErr.Error()
				if trans != nil {
					message = validationErr.Translate(trans)
				}
				errs = append(errs, &ValidError{
					Key:     validationErr.Field(),
					Message: message,
				})
			}
		}
		return false, errs
	}
	return true, nil
}

// 定期发送 Ping 消息
func (c *WebsocketClient) PingLoop(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			log(LogInfo, "WebsocketServer Client Close Ping")
			return
		case <-ticker.C:
			if c.conn == nil {
				return
			}
			if err := c.conn.WritePing(nil); err != nil {
				log(LogError, "WebsocketServer Client Ping err ", zap.Error(err))
				return
			}
		}
	}
}

// ToResponse 将结果转换为 JSON 格式并发送给客户端
func (c *WebsocketClient) ToResponse(code *code.Code, action ...string) {

	var actionType string
	if len(action) > 0 {
		actionType = action[0]
	}
	if code.HaveDetails() {
		details := strings.Join(code.Details(), ",")
		c.send(actionType, ResDetailsResult{
			Code:    code.Code(),
			Status:  code.Status(),
			Msg:     code.Lang.GetMessage(),
			Data:    code.Data(),
			Details: details,
		}, false, false)
	} else {
		if actionType != "" || code.Code() > 200 || code.HaveData() {
			c.send(actionType, ResResult{
				Code:   code.Code(),
				Status: code.Status(),
				Msg:    code.Lang.GetMessage(),
				Data:   code.Data(),
			}, false, false)
		}
	}
	code.Reset()
}

// BroadcastResponse 将结果转换为 JSON 格式并广播给同一用户的所有连接
// 第二个options参数为是否排除自己 第三个options参数为动作类型
func (c *WebsocketClient) BroadcastResponse(code *code.Code, options ...any) {

	var actionType string
	if len(options) > 1 {
		actionType = options[1].(string)
	}

	if code.HaveDetails() {
		details := strings.Join(code.Details(), ",")
		c.send(actionType, ResDetailsResult{
			Code:    code.Code(),
			Status:  code.Status(),
			Msg:     code.Lang.GetMessage(),
			Data:    code.Data(),
			Details: details,
		}, true, options[0].(bool))
	} else {
		c.send(actionType, ResResult{
			Code:   code.Code(),
			Status: code.Status(),
			Msg:    code.Lang.GetMessage(),
			Data:   code.Data(),
		}, true, options[0].(bool))
	}

	code.Reset()
}

// Push 主动推送一条带动作类型的消息（用于订阅事件下发）
func (c *WebsocketClient) Push(actionType string, data any) {
	c.send(actionType, ResResult{
		Code:   200,
		Status: true,
		Data:   data,
	}, false, false)
}

func (c *WebsocketClient) send(actionType string, content any, isBroadcast bool, isExcludeSelf bool) {
	responseBytes, _ := sonic.Marshal(content)
	if actionType != "" {
		responseBytes = []byte(fmt.Sprintf(`%s|%s`, actionType, string(responseBytes)))
	}
	if isBroadcast {
		c.broadcast(responseBytes, isExcludeSelf)
	} else {
		c.message(responseBytes)
	}
}

func (c *WebsocketClient) message(payload []byte) {
	c.conn.WriteMessage(gws.OpcodeText, payload)
}

func (c *WebsocketClient) broadcast(payload []byte, isExcludeSelf bool) {
	var b = gws.NewBroadcaster(gws.OpcodeText, payload)
	defer b.Close()

	for _, uc := range *c.UserClients {
		if uc.conn == nil {
			continue
		}
		if isExcludeSelf && uc.conn == c.conn {
			continue
		}

		_ = b.Broadcast(uc.conn)
	}
}

// ------------------------------------> WebsocketServer

type ConnStorage = map[*gws.Conn]*WebsocketClient

type WebsocketServer struct {
	handlers        map[string]func(*WebsocketClient, *WebSocketMessage)
	userDataHandler func(*WebsocketClient, string) (*UserSelectEntity, error)
	closeHandler    func(*WebsocketClient)
	tokenManager    TokenManager
	clients         ConnStorage
	userClients     map[string]ConnStorage
	mu              sync.Mutex
	up              *gws.Upgrader
	config          *WebsocketServerConfig
}

func NewWebsocketServer(c WebsocketServerConfig, tm TokenManager) *WebsocketServer {
	if c.PingInterval == 0 {
		c.PingInterval = WebSocketServerPingInterval
	}
	if c.PingWait == 0 {
		c.PingWait = WebSocketServerPingWait
	}
	wss := WebsocketServer{
		handlers:     make(map[string]func(*WebsocketClient, *WebSocketMessage)),
		clients:      make(ConnStorage),
		userClients:  make(map[string]ConnStorage),
		tokenManager: tm,
		config:       &c,
	}
	return &wss
}

func (w *WebsocketServer) Upgrade() {
	w.up = gws.NewUpgrader(w, &w.config.GWSOption)
}

func (w *WebsocketServer) Run() gin.HandlerFunc {

	return func(c *gin.Context) {

		w.Upgrade()
		socket, err := w.up.Upgrade(c.Writer, c.Request)
		if err != nil {
			log(LogError, "WebsocketServer Start err", zap.Error(err))
			return
		}
		client := &WebsocketClient{conn: socket, done: make(chan struct{}), Ctx: c, SF: new(singleflight.Group)}
		w.AddClient(client)
		log(LogInfo, "WebsocketServer Start", zap.String("type", "ReadLoop"))
		go socket.ReadLoop()
	}
}

func (w *WebsocketServer) Use(action string, handler func(*WebsocketClient, *WebSocketMessage)) {
	w.handlers[action] = handler
}

func (w *WebsocketServer) UserDataSelectUse(handler func(*WebsocketClient, string) (*UserSelectEntity, error)) {
	w.userDataHandler = handler
}

// CloseUse 注册连接关闭回调，路由层用于清理会话等连接级状态
func (w *WebsocketServer) CloseUse(handler func(*WebsocketClient)) {
	w.closeHandler = handler
}

func (w *WebsocketServer) Authorization(c *WebsocketClient, msg *WebSocketMessage) {

	user, err := w.tokenManager.Parse(string(msg.Data))
	if err != nil {
		log(LogError, "WebsocketServer Authorization FAILD", zap.Error(err))
		c.ToResponse(code.ErrorInvalidUserAuthToken.Clone(), "Authorization")
		time.Sleep(2 * time.Second)
		c.conn.WriteClose(1000, []byte("AuthorizationFaild"))
		return
	}

	// 用户有效性强制验证
	userSelect, err := w.userDataHandler(c, user.UID)
	if userSelect == nil || err != nil {
		log(LogError, "WebsocketServer Authorization FAILD USER Not Exist", zap.Error(err))
		c.ToResponse(code.ErrorInvalidUserAuthToken.Clone(), "Authorization")
		time.Sleep(2 * time.Second)
		c.conn.WriteClose(1000, []byte("AuthorizationFaild"))
		return
	}

	user.Email = userSelect.Email

	log(LogInfo, "WebsocketServer Authorization", zap.String("uid", user.UID), zap.String("email", user.Email))
	c.User = user
	w.AddUserClient(c)

	userClients := w.userClients[user.UID]

	c.UserClients = &userClients
	c.ToResponse(code.Success.Clone(), "Authorization")
	log(LogInfo, "WebsocketServer User Enters", zap.String("uid", c.User.UID), zap.Int("Count", len(userClients)))
	go c.PingLoop(w.config.PingInterval)
}

func (w *WebsocketServer) GetClient(conn *gws.Conn) *WebsocketClient {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.clients[conn]
}

func (w *WebsocketServer) AddClient(c *WebsocketClient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clients[c.conn] = c
}

func (w *WebsocketServer) RemoveClient(conn *gws.Conn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.clients, conn)
}

func (w *WebsocketServer) AddUserClient(c *WebsocketClient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.userClients[c.User.UID] == nil {
		w.userClients[c.User.UID] = make(ConnStorage)
	}
	w.userClients[c.User.UID][c.conn] = c
}

func (w *WebsocketServer) RemoveUserClient(c *WebsocketClient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.userClients[c.User.UID], c.conn)
	log(LogInfo, "WebsocketServer Client Remove", zap.Int("userCount", len(w.clients)))
}

func (w *WebsocketServer) OnOpen(conn *gws.Conn) {
	log(LogInfo, "WebsocketServer Client Connect", zap.Int("Count", len(w.clients)))
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait * time.Second))
}

func (w *WebsocketServer) OnClose(conn *gws.Conn, err error) {

	c := w.GetClient(conn)

	w.RemoveClient(conn)

	if c == nil {
		return
	}

	if w.closeHandler != nil {
		w.closeHandler(c)
	}

	if c.User != nil {
		c.done <- struct{}{}
		log(LogInfo, "WebsocketServer User Leave", zap.String("uid", c.User.UID))
		w.RemoveUserClient(c)
	}

	log(LogInfo, "WebsocketServer Client Leave", zap.Int("Count", len(w.clients)))

}

func (w *WebsocketServer) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait * time.Second))
	_ = socket.WritePong(nil)
}

func (w *WebsocketServer) OnPong(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait * time.Second))
}

func (w *WebsocketServer) OnMessage(conn *gws.Conn, message *gws.Message) {
	defer message.Close()
	if message.Opcode != gws.OpcodeText {
		return
	}
	if message.Data.String() == "close" {
		conn.WriteClose(1000, []byte("ClientClose"))
		return
	}

	c := w.GetClient(conn)
	if c == nil {
		return
	}

	messageStr := message.Data.String()
	// 使用 strings.Index 找到分隔符的位置
	index := strings.Index(messageStr, "|")

	var msg WebSocketMessage
	if index != -1 {
		msg.Type = messageStr[:index]           // 提取分隔符之前的部分
		msg.Data = []byte(messageStr[index+1:]) // 提取分隔符之后的部分
	} else {
		log(LogError, "WebsocketServer OnMessage", zap.String("type", "Illegal message type"))
		return
	}

	if msg.Type == "Authorization" {
		w.Authorization(c, &msg)
		return
	}

	// 验证用户是否登录
	if c.User == nil {
		c.ToResponse(code.ErrorNotUserAuthToken.Clone())
		return
	}

	// 执行操作
	handler, exists := w.handlers[msg.Type]
	if exists {
		log(LogInfo, "WebsocketServer OnMessage", zap.String("Type", msg.Type))
		handler(c, &msg)
	} else {
		log(LogError, "WebsocketServer OnMessage", zap.String("msg", "Unknown message type"))
	}
}
