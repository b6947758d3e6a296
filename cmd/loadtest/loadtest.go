// Load driver for the relay: spawns pairs of clients that authenticate with
// self-minted tokens, join their shared room, and exchange messages while
// the receiver counts deliveries.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/clarity-platform/peer-relay/internal/auth"
	"github.com/clarity-platform/peer-relay/internal/model"
)

var (
	addr     = flag.String("addr", "http://localhost:4000", "relay base URL")
	pairs    = flag.Int("pairs", 10, "number of chat pairs to simulate")
	messages = flag.Int("messages", 50, "messages sent per pair")
	secret   = flag.String("secret", os.Getenv("JWT_SECRET"), "shared signing secret")
	timeout  = flag.Duration("timeout", 60*time.Second, "overall run deadline")
)

var (
	sent     atomic.Int64
	received atomic.Int64
)

func main() {
	flag.Parse()

	if *secret == "" {
		log.Fatal("no signing secret: set JWT_SECRET or pass -secret")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < *pairs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := runPair(ctx); err != nil {
				log.Printf("pair failed: %v", err)
			}
		}()
	}
	wg.Wait()

	elapsed := time.Since(start)
	fmt.Printf("pairs: %d\nsent: %d\nreceived: %d\nelapsed: %s\nthroughput: %.1f msg/s\n",
		*pairs, sent.Load(), received.Load(), elapsed.Round(time.Millisecond),
		float64(received.Load())/elapsed.Seconds())
}

func runPair(ctx context.Context) error {
	userA := uuid.NewString()
	userB := uuid.NewString()

	connA, err := dial(ctx, userA)
	if err != nil {
		return fmt.Errorf("dial sender: %w", err)
	}
	defer connA.CloseNow()

	connB, err := dial(ctx, userB)
	if err != nil {
		return fmt.Errorf("dial receiver: %w", err)
	}
	defer connB.CloseNow()

	if err := writeEvent(ctx, connA, model.EventJoinChat, model.JoinChat{OtherUserID: userB}); err != nil {
		return err
	}
	chatData, err := waitFor(ctx, connA, model.EventJoinedChat)
	if err != nil {
		return err
	}
	var joined model.JoinedChat
	if err := json.Unmarshal(chatData, &joined); err != nil {
		return err
	}

	if err := writeEvent(ctx, connB, model.EventJoinChat, model.JoinChat{OtherUserID: userA}); err != nil {
		return err
	}
	if _, err := waitFor(ctx, connB, model.EventJoinedChat); err != nil {
		return err
	}

	// Receiver drains until it has seen every message.
	recvDone := make(chan error, 1)
	go func() {
		for n := 0; n < *messages; {
			if _, err := waitFor(ctx, connB, model.EventReceiveMessage); err != nil {
				recvDone <- err
				return
			}
			received.Add(1)
			n++
		}
		recvDone <- nil
	}()

	for i := 0; i < *messages; i++ {
		if i%10 == 0 {
			if err := writeEvent(ctx, connA, model.EventTyping, model.TypingState{ChatID: joined.ChatID}); err != nil {
				return err
			}
		}
		err := writeEvent(ctx, connA, model.EventSendMessage, model.SendMessage{
			ChatID:    joined.ChatID,
			Text:      fmt.Sprintf("message %d", i),
			MessageID: uuid.NewString(),
		})
		if err != nil {
			return err
		}
		sent.Add(1)
	}

	if err := writeEvent(ctx, connA, model.EventStopTyping, model.TypingState{ChatID: joined.ChatID}); err != nil {
		return err
	}

	return <-recvDone
}

func dial(ctx context.Context, userID string) (*websocket.Conn, error) {
	token, err := auth.MakeJWT(userID, *secret, 5*time.Minute)
	if err != nil {
		return nil, err
	}

	conn, resp, err := websocket.Dial(ctx, *addr+"/ws?token="+token, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

func writeEvent(ctx context.Context, conn *websocket.Conn, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(model.Envelope{Event: event, Data: payload})
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, frame)
}

func waitFor(ctx context.Context, conn *websocket.Conn, event string) (json.RawMessage, error) {
	for {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			return nil, err
		}

		var env model.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, err
		}
		if env.Event == event {
			return env.Data, nil
		}
	}
}
