package event

import (
	"fmt"
	"log"

	config "github.com/inkpress/blog_platform/configs"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Collaborator services publish their side effects (likes, follows, comments)
// onto queues; the action header names the event kind.
const ActionHeader = "x-action"

type ChannelData struct {
	Action string
	Data   []byte
}

type SubscribeListener struct {
	Queue   string
	Channel chan ChannelData
}

var (
	Connection *amqp.Connection
	Channel    *amqp.Channel
	Queues     = make(map[string]amqp.Queue)
)

func Connect(queues []string) {
	var err error
	Connection, err = amqp.Dial(fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		config.Config("RABBITMQ_USER"),
		config.Config("RABBITMQ_PASSWORD"),
		config.Config("RABBITMQ_HOST"),
		config.Config("RABBITMQ_PORT"),
	))
	if err != nil {
		log.Fatalf("🔥 Failed to connect to RabbitMQ: %v", err)
	}
	log.Println("✅ Connection opened to RabbitMQ")

	Channel, err = Connection.Channel()
	if err != nil {
		log.Fatalf("🔥 Failed to open a RabbitMQ channel: %v", err)
	}

	for _, name := range queues {
		queue, err := Channel.QueueDeclare(
			name,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			log.Fatalf("🔥 Failed to declare RabbitMQ queue %s: %v", name, err)
		}
		Queues[name] = queue
	}
}

func Subscribe(listeners []SubscribeListener) {
	for _, listener := range listeners {
		msgs, err := Channel.Consume(
			listener.Queue,
			"",    // consumer
			false, // auto-ack
			false, // exclusive
			false, // no-local
			false, // no-wait
			nil,
		)
		if err != nil {
			log.Fatalf("🔥 Failed to register a consumer on %s: %v", listener.Queue, err)
		}
		log.Printf("✅ Subscribed to RabbitMQ [%s] queue", listener.Queue)

		go func(listener SubscribeListener) {
			for msg := range msgs {
				action, _ := msg.Headers[ActionHeader].(string)
				msg.Ack(false)

				listener.Channel <- ChannelData{
					Action: action,
					Data:   msg.Body,
				}
			}
		}(listener)
	}
}

func Close() {
	if Channel != nil {
		Channel.Close()
	}
	if Connection != nil {
		Connection.Close()
	}
}
