package badges

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	models "github.com/glkeru/loyalty/badges/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Публикация выданных бейджей для сервиса уведомлений
type RabbitPublisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	mu    sync.Mutex // amqp.Channel не потокобезопасен для публикации
}

type AwardMessage struct {
	UserID string                `json:"userId"`
	Badges []models.GrantedBadge `json:"badges"`
}

func NewRabbitPublisher(url, queue string) (*RabbitPublisher, error) {
	if url == "" {
		return nil, fmt.Errorf("env RABBIT_URL is not set")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &RabbitPublisher{conn: conn, ch: ch, queue: queue}, nil
}

func (r *RabbitPublisher) Close() {
	r.ch.Close()
	r.conn.Close()
}

func (r *RabbitPublisher) BadgesGranted(ctx context.Context, userID string, granted []models.GrantedBadge) error {
	msg, err := EncodeAwardMessage(userID, granted)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ch.PublishWithContext(ctx,
		"",      // exchange
		r.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         msg,
		})
}

func EncodeAwardMessage(userID string, granted []models.GrantedBadge) ([]byte, error) {
	return json.Marshal(AwardMessage{UserID: userID, Badges: granted})
}
