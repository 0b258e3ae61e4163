package messaging

import (
	"strings"

	"github.com/rabbitmq/amqp091-go"
)

// Exchange and queue names
const (
	EventsExchange        = "pos_events"
	NotificationsExchange = "notifications_fanout"
	KitchenQueue          = "kitchen_queue"
	NotificationsQueue    = "notifications_queue"
)

// MaxPriority is the highest message priority the kitchen queue honours
const MaxPriority = 10

// Exchange describes a declared exchange
type Exchange struct {
	Name string
	Kind string
}

// Queue describes a declared queue
type Queue struct {
	Name string
	Args amqp091.Table
}

// Binding connects a queue to an exchange with a routing pattern
type Binding struct {
	Queue    string
	Exchange string
	Pattern  string
}

// Topology is the full set of broker objects the POS services rely on
type Topology struct {
	Exchanges []Exchange
	Queues    []Queue
	Bindings  []Binding
}

// DefaultTopology returns the exchanges, queues and bindings declared on connect
func DefaultTopology() Topology {
	return Topology{
		Exchanges: []Exchange{
			{Name: EventsExchange, Kind: amqp091.ExchangeTopic},
			{Name: NotificationsExchange, Kind: amqp091.ExchangeFanout},
		},
		Queues: []Queue{
			{Name: KitchenQueue, Args: amqp091.Table{
				"x-message-ttl":  int32(300000), // 5 minutes TTL
				"x-max-priority": int32(MaxPriority),
			}},
			{Name: NotificationsQueue},
		},
		Bindings: []Binding{
			{Queue: KitchenQueue, Exchange: EventsExchange, Pattern: "order.*"},
			{Queue: NotificationsQueue, Exchange: NotificationsExchange, Pattern: ""},
		},
	}
}

// Routes returns the queues a message published to exchange with key reaches
func (t Topology) Routes(exchange, key string) []string {
	kind := ""
	for _, ex := range t.Exchanges {
		if ex.Name == exchange {
			kind = ex.Kind
		}
	}

	var queues []string
	for _, b := range t.Bindings {
		if b.Exchange != exchange {
			continue
		}
		if kind == amqp091.ExchangeFanout || topicMatches(b.Pattern, key) {
			queues = append(queues, b.Queue)
		}
	}
	return queues
}

// topicMatches applies AMQP topic rules: "*" matches one word, "#" zero or more
func topicMatches(pattern, key string) bool {
	return matchWords(strings.Split(pattern, "."), strings.Split(key, "."))
}

func matchWords(pattern, key []string) bool {
	if len(pattern) == 0 {
		return len(key) == 0
	}
	switch pattern[0] {
	case "#":
		for i := 0; i <= len(key); i++ {
			if matchWords(pattern[1:], key[i:]) {
				return true
			}
		}
		return false
	case "*":
		return len(key) > 0 && matchWords(pattern[1:], key[1:])
	default:
		return len(key) > 0 && pattern[0] == key[0] && matchWords(pattern[1:], key[1:])
	}
}
