//go:build integration

package nats

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNatsURL string

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}
	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "nats",
		Tag:        "2.9",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start NATS resource: %s", err)
	}
	testNatsURL = fmt.Sprintf("nats://%s", resource.GetHostPort("4222/tcp"))

	if err := pool.Retry(func() error {
		conn, errRetry := Connect(testNatsURL, logger.NewNop(), "readiness-check")
		if errRetry != nil {
			return errRetry
		}
		conn.Close()
		return nil
	}); err != nil {
		log.Fatalf("Could not connect to NATS: %s", err)
	}

	code := m.Run()
	if err := pool.Purge(resource); err != nil {
		log.Printf("Could not purge NATS resource: %s", err)
	}
	os.Exit(code)
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	log := logger.NewNop()
	conn, err := Connect(testNatsURL, log, "integration")
	require.NoError(t, err)
	pub := NewPublisher(conn, log)
	defer pub.Close()

	received := make(chan domain.ListingEvent, 1)
	sub := NewSubscriber(conn, log)
	require.NoError(t, sub.Subscribe(domain.SubjectListingCreated, func(_ context.Context, e domain.ListingEvent) error {
		received <- e
		return nil
	}))
	defer sub.Unsubscribe()
	require.NoError(t, conn.Flush())

	event := domain.ListingEvent{EventID: "e1", ListingID: "l1", UserID: "u1", ListingType: domain.TypeServices}
	require.NoError(t, pub.Publish(context.Background(), domain.SubjectListingCreated, event))

	select {
	case got := <-received:
		assert.Equal(t, "l1", got.ListingID)
		assert.Equal(t, domain.TypeServices, got.ListingType)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}
