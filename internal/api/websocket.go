// internal/api/websocket.go
package api

import (
	"net/http"
	"time"

	"github.com/Alwrity/ContentStudio/internal/services"
	"github.com/Alwrity/ContentStudio/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 在生产环境中应该进行更严格的检查
		return true
	},
}

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
	wsPongTimeout  = 60 * time.Second
)

// WebSocketHandler 向客户端推送研究任务进度
type WebSocketHandler struct {
	progress *services.ProgressService
	logger   *utils.Logger
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(progress *services.ProgressService) *WebSocketHandler {
	return &WebSocketHandler{
		progress: progress,
		logger:   utils.GetLogger(),
	}
}

// progressMessage 进度推送消息格式
type progressMessage struct {
	Type      string `json:"type"`
	TaskID    string `json:"task_id"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ResearchProgressWebSocket 处理 /ws/research/:task_id 连接
// 订阅任务进度并持续推送，任务终结或客户端断开即关闭
func (h *WebSocketHandler) ResearchProgressWebSocket(c *gin.Context) {
	taskID := c.Param("task_id")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task_id不能为空"})
		return
	}

	tracker, exists := h.progress.GetTracker(taskID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket升级失败", map[string]interface{}{
			"task_id": taskID,
			"error":   err.Error(),
		})
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	// 读循环只为感知客户端断开
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	updates := tracker.Subscribe()
	defer tracker.Unsubscribe(updates)

	pingTicker := time.NewTicker(wsPingInterval)
	defer pingTicker.Stop()

	h.logger.Info("WebSocket进度订阅已建立", map[string]interface{}{"task_id": taskID})

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := h.writeProgress(conn, taskID, update); err != nil {
				return
			}
			if update.Status != services.TaskStatusRunning {
				// 终态消息已送达，正常关闭
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

		case <-tracker.Done:
			// 兜底：订阅通道拥堵时也能结束连接
			if err := h.writeProgress(conn, taskID, tracker.Snapshot()); err != nil {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-clientGone:
			return
		}
	}
}

// writeProgress 序列化并写出单条进度更新
func (h *WebSocketHandler) writeProgress(conn *websocket.Conn, taskID string, update services.ProgressUpdate) error {
	msg := progressMessage{
		Type:      "progress",
		TaskID:    taskID,
		Status:    update.Status,
		Progress:  update.Progress,
		Message:   update.Message,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(msg)
}
