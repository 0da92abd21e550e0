package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/yourusername/quizpin-api/internal/config"
)

// clusterMessage представляет сообщение, передаваемое между экземплярами Hub
type clusterMessage struct {
	// MessageType: "broadcast" - для всех клиентов, "quiz" - для подписчиков викторины,
	// "direct" - для конкретного пользователя
	MessageType string `json:"type"`

	// QuizID содержит ID викторины для quiz-сообщений
	QuizID string `json:"quiz_id,omitempty"`

	// RecipientID содержит ID получателя для direct-сообщений
	RecipientID string `json:"recipient_id,omitempty"`

	// InstanceID содержит ID отправителя для избежания дублирования
	InstanceID string `json:"instance_id"`

	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// Hub управляет всеми WebSocket клиентами и рассылкой событий.
// Клиенты группируются по пользователю и по подписке на викторину.
type Hub struct {
	mu sync.RWMutex

	// Все подключенные клиенты
	clients map[*Client]bool

	// Клиенты, сгруппированные по UserID (у пользователя может быть несколько соединений)
	userClients map[string]map[*Client]bool

	// Подписчики по ID викторины
	quizSubs map[string]map[*Client]bool

	// Каналы регистрации и отмены регистрации
	register   chan *Client
	unregister chan *Client

	instanceID string
	cluster    config.ClusterConfig
	pubsub     PubSubProvider

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub создает новый хаб
func NewHub(cfg config.ClusterConfig, pubsub PubSubProvider) *Hub {
	if pubsub == nil {
		log.Println("[Hub] Провайдер Pub/Sub не предоставлен, используется NoOpPubSub")
		pubsub = &NoOpPubSub{}
	}

	instanceID := cfg.InstanceID
	if instanceID == "" {
		instanceID = generateInstanceID()
		log.Printf("[Hub] Instance ID не задан, сгенерирован: %s", instanceID)
	}
	if cfg.BroadcastChannel == "" {
		cfg.BroadcastChannel = "quizpin:ws:broadcast"
	}
	cfg.InstanceID = instanceID

	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		clients:     make(map[*Client]bool),
		userClients: make(map[string]map[*Client]bool),
		quizSubs:    make(map[string]map[*Client]bool),
		register:    make(chan *Client, 64),
		unregister:  make(chan *Client, 64),
		instanceID:  instanceID,
		cluster:     cfg,
		pubsub:      pubsub,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run запускает цикл обработки регистраций и кластерных сообщений
func (h *Hub) Run() {
	log.Printf("[Hub] Запуск хаба, ID экземпляра: %s", h.instanceID)

	if h.cluster.Enabled {
		go h.listenCluster()
	}

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.ctx.Done():
			log.Println("[Hub] Остановка хаба")
			return
		}
	}
}

// Stop останавливает хаб и закрывает все клиентские соединения
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[*Client]bool)
	h.userClients = make(map[string]map[*Client]bool)
	h.quizSubs = make(map[string]map[*Client]bool)
}

// RegisterClient ставит клиента в очередь на регистрацию
func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	if h.userClients[client.UserID] == nil {
		h.userClients[client.UserID] = make(map[*Client]bool)
	}
	h.userClients[client.UserID][client] = true
	log.Printf("[Hub] Клиент зарегистрирован: UserID=%s, ConnID=%s, всего клиентов: %d",
		client.UserID, client.ConnectionID, len(h.clients))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	if conns, ok := h.userClients[client.UserID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.userClients, client.UserID)
		}
	}
	if quizID := client.GetQuizID(); quizID != "" {
		if subs, ok := h.quizSubs[quizID]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.quizSubs, quizID)
			}
		}
	}
	log.Printf("[Hub] Клиент отключен: UserID=%s, ConnID=%s, всего клиентов: %d",
		client.UserID, client.ConnectionID, len(h.clients))
}

// SubscribeToQuiz подписывает клиента на события викторины
func (h *Hub) SubscribeToQuiz(client *Client, quizID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Снимаем предыдущую подписку, если была
	if prev := client.GetQuizID(); prev != "" && prev != quizID {
		if subs, ok := h.quizSubs[prev]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.quizSubs, prev)
			}
		}
	}

	if h.quizSubs[quizID] == nil {
		h.quizSubs[quizID] = make(map[*Client]bool)
	}
	h.quizSubs[quizID][client] = true
	client.SetQuizID(quizID)
}

// BroadcastJSON отправляет структуру JSON всем клиентам
func (h *Hub) BroadcastJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast message: %w", err)
	}

	h.broadcastLocal(data)

	if h.cluster.Enabled {
		return h.publishCluster(clusterMessage{
			MessageType: "broadcast",
			InstanceID:  h.instanceID,
			Payload:     data,
			Timestamp:   time.Now(),
		})
	}
	return nil
}

// BroadcastJSONToQuiz отправляет структуру JSON всем подписчикам викторины
func (h *Hub) BroadcastJSONToQuiz(quizID string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal quiz message: %w", err)
	}

	h.quizcastLocal(quizID, data)

	if h.cluster.Enabled {
		return h.publishCluster(clusterMessage{
			MessageType: "quiz",
			QuizID:      quizID,
			InstanceID:  h.instanceID,
			Payload:     data,
			Timestamp:   time.Now(),
		})
	}
	return nil
}

// SendJSONToUser отправляет структуру JSON конкретному пользователю
func (h *Hub) SendJSONToUser(userID string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal direct message: %w", err)
	}

	delivered := h.sendToUserLocal(userID, data)

	if !delivered && h.cluster.Enabled {
		return h.publishCluster(clusterMessage{
			MessageType: "direct",
			RecipientID: userID,
			InstanceID:  h.instanceID,
			Payload:     data,
			Timestamp:   time.Now(),
		})
	}
	if !delivered {
		return fmt.Errorf("user %s is not connected", userID)
	}
	return nil
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// QuizSubscriberCount возвращает количество подписчиков викторины
func (h *Hub) QuizSubscriberCount(quizID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.quizSubs[quizID])
}

func (h *Hub) broadcastLocal(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		h.trySend(client, message)
	}
}

func (h *Hub) quizcastLocal(quizID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.quizSubs[quizID] {
		h.trySend(client, message)
	}
}

func (h *Hub) sendToUserLocal(userID string, message []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns, ok := h.userClients[userID]
	if !ok || len(conns) == 0 {
		return false
	}
	for client := range conns {
		h.trySend(client, message)
	}
	return true
}

// trySend кладет сообщение в буфер клиента без блокировки.
// Вызывается под RLock хаба.
func (h *Hub) trySend(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		log.Printf("[Hub] Буфер клиента %s (Conn: %s) переполнен, сообщение отброшено",
			client.UserID, client.ConnectionID)
	}
}

func (h *Hub) publishCluster(msg clusterMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return h.pubsub.Publish(h.cluster.BroadcastChannel, data)
}

// listenCluster обрабатывает сообщения от других экземпляров хаба
func (h *Hub) listenCluster() {
	msgCh, err := h.pubsub.Subscribe(h.ctx, h.cluster.BroadcastChannel)
	if err != nil {
		log.Printf("[Hub] Ошибка подписки на канал кластера %s: %v", h.cluster.BroadcastChannel, err)
		return
	}
	log.Printf("[Hub] Кластерный режим включен, канал: %s", h.cluster.BroadcastChannel)

	for {
		select {
		case <-h.ctx.Done():
			return
		case raw, ok := <-msgCh:
			if !ok {
				log.Println("[Hub] Канал кластера закрыт")
				return
			}

			var msg clusterMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				log.Printf("[Hub] Ошибка десериализации кластерного сообщения: %v", err)
				continue
			}

			// Игнорируем сообщения от самого себя
			if msg.InstanceID == h.instanceID {
				continue
			}

			switch msg.MessageType {
			case "broadcast":
				h.broadcastLocal(msg.Payload)
			case "quiz":
				h.quizcastLocal(msg.QuizID, msg.Payload)
			case "direct":
				h.sendToUserLocal(msg.RecipientID, msg.Payload)
			default:
				log.Printf("[Hub] Неизвестный тип кластерного сообщения: %s", msg.MessageType)
			}
		}
	}
}
