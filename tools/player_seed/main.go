package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

var ctx = context.Background()

func main() {
	rdb := connectToRedis("localhost:6379")
	initializeRedis(rdb)
	startCLI(rdb)
}

func connectToRedis(addr string) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return rdb
}

func initializeRedis(rdb *redis.Client) error {
	players := map[string]map[string]string{
		"Steve": {
			"muted":    "false",
			"language": "en",
		},
		"Alex": {
			"muted":    "false",
			"language": "de",
		},
	}

	for player, keys := range players {
		for key, value := range keys {
			if err := setData(rdb, player, key, value); err != nil {
				fmt.Printf("Error setting %s for %s: %v\n", key, player, err)
				return err
			}
			fmt.Printf("Set %s.%s to %s\n", player, key, value)
		}
	}
	return nil
}

func startCLI(rdb *redis.Client) {
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("Enter command (set <player> <key> <value>, points <player> <set> <amount> or exit): ")
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)

		if input == "exit" {
			break
		}

		if err := processCommand(rdb, input); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

func processCommand(rdb *redis.Client, input string) error {
	parts := strings.Split(input, " ")
	if len(parts) != 4 {
		return fmt.Errorf("invalid command. Use 'set <player> <key> <value>' or 'points <player> <set> <amount>'")
	}

	switch parts[0] {
	case "set":
		if err := setData(rdb, parts[1], parts[2], parts[3]); err != nil {
			return err
		}
		fmt.Printf("Set %s.%s to %s\n", parts[1], parts[2], parts[3])
	case "points":
		amount, err := strconv.Atoi(parts[3])
		if err != nil {
			return fmt.Errorf("invalid amount: %s", parts[3])
		}
		key := "player:" + parts[1] + ":points"
		total, err := rdb.HIncrBy(ctx, key, parts[2], int64(amount)).Result()
		if err != nil {
			return fmt.Errorf("error adding points: %v", err)
		}
		fmt.Printf("%s now has %d points in %s\n", parts[1], total, parts[2])
	default:
		return fmt.Errorf("unknown command: %s", parts[0])
	}
	return nil
}

func setData(rdb *redis.Client, player, key, value string) error {
	// Values are stored JSON-encoded, matching the engine's store layout.
	var typed interface{} = value
	if value == "true" || value == "false" {
		typed = value == "true"
	} else if num, err := strconv.ParseFloat(value, 64); err == nil {
		typed = num
	}
	data, err := json.Marshal(typed)
	if err != nil {
		return err
	}
	return rdb.HSet(ctx, "player:"+player+":data", key, data).Err()
}
