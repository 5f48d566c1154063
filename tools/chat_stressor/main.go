package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/redis/go-redis/v9"
)

var (
	redisAddr string
	channel   string
	eventRate int
	players   int
)

func init() {
	flag.StringVar(&redisAddr, "redis", "localhost:6379", "Redis address")
	flag.StringVar(&channel, "channel", "chat_events", "Event channel to publish on")
	flag.IntVar(&eventRate, "rate", 10, "Number of chat events per second")
	flag.IntVar(&players, "players", 20, "Number of synthetic players")
	flag.Parse()
}

func main() {
	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	_, err := rdb.Ping(ctx).Result()
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}

	gofakeit.Seed(time.Now().UnixNano())

	names := make([]string, players)
	for i := range names {
		names[i] = gofakeit.Username()
	}

	fmt.Printf("Connected to Redis at %s\n", redisAddr)
	fmt.Printf("Publishing %d chat events per second on %s\n", eventRate, channel)

	ticker := time.NewTicker(time.Second / time.Duration(eventRate))
	defer ticker.Stop()

	for range ticker.C {
		sender := names[rand.Intn(len(names))]
		text := gofakeit.HipsterSentence(rand.Intn(8) + 2)

		kind := "chat"
		if rand.Float32() < 0.1 {
			kind = "command"
			text = "/" + strings.ToLower(gofakeit.Word()) + " " + text
		}

		message := strings.Join([]string{kind, sender, "general", text}, "|")
		if err := rdb.Publish(ctx, channel, message).Err(); err != nil {
			fmt.Printf("Error publishing event: %v\n", err)
			continue
		}

		fmt.Printf("Published event: %s\n", message)
	}
}
