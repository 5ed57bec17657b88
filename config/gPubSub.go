package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// PubSubMessage is the envelope published for every state change worth auditing.
type PubSubMessage struct {
	Entity        string    `json:"entity"`
	Action        string    `json:"action"`
	OriginalId    string    `json:"original_id"`
	NewId         string    `json:"new_id,omitempty"`
	Actor         string    `json:"actor,omitempty"`
	CorrelationId string    `json:"correlation_id,omitempty"`
	At            time.Time `json:"at"`
}

// PubSubPublisher lazily creates the client on first publish.
type PubSubPublisher struct {
	projectID string
	topic     string
	credJSON  string

	mu     sync.Mutex
	client *pubsub.Client
}

func NewPubSubPublisher(projectID, topic, credJSON string) (*PubSubPublisher, error) {
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}
	if topic == "" {
		return nil, errors.New("PUBSUB_TOPIC is required")
	}
	return &PubSubPublisher{projectID: projectID, topic: topic, credJSON: credJSON}, nil
}

func (p *PubSubPublisher) getClient(ctx context.Context) (*pubsub.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}

	var (
		c   *pubsub.Client
		err error
	)
	if p.credJSON != "" {
		c, err = pubsub.NewClient(ctx, p.projectID, option.WithCredentialsJSON([]byte(p.credJSON)))
	} else {
		// Application Default Credentials.
		c, err = pubsub.NewClient(ctx, p.projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("init pubsub client (project_id=%s): %w", p.projectID, err)
	}
	log.Printf("pubsub client ready (project_id=%s)", p.projectID)
	p.client = c
	return c, nil
}

// Publish sends msg and waits for the server-assigned id.
func (p *PubSubPublisher) Publish(ctx context.Context, msg PubSubMessage) (string, error) {
	if p == nil {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := p.getClient(ctx)
	if err != nil {
		return "", err
	}
	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	result := client.Topic(p.topic).Publish(ctx, &pubsub.Message{
		Data: msgJSON,
		Attributes: map[string]string{
			"entity": msg.Entity,
			"action": msg.Action,
		},
	})
	return result.Get(ctx)
}

func (p *PubSubPublisher) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		return nil
	}
	err := p.client.Close()
	p.client = nil
	return err
}
