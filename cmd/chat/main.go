package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"shoplink/internal/adapter/rest"
	"shoplink/internal/domain/entity"
	"shoplink/internal/infrastructure/persist"
	"shoplink/internal/infrastructure/session"
	"shoplink/internal/infrastructure/socket"
	"shoplink/internal/usecase"
	"shoplink/pkg/config"
	"shoplink/pkg/errors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	tokenStore := session.NewStore(cfg.TokenPath)
	sess, err := tokenStore.Load()
	if err != nil {
		log.Fatalf("Failed to load session: %v", err)
	}
	if !sess.LoggedIn {
		log.Fatalf("No session token found at %s; log in first", cfg.TokenPath)
	}

	client := rest.NewClient(cfg.APIBaseURL, tokenStore.Token)
	chatClient := rest.NewChatClient(client)

	stateStore, err := persist.Open(cfg.StateDBPath)
	if err != nil {
		log.Fatalf("Failed to open state store: %v", err)
	}
	presence := usecase.NewPresenceStore(stateStore)

	cache := usecase.NewChatCache(
		func(ctx context.Context) ([]entity.Thread, error) {
			if cfg.ShopID != "" {
				return chatClient.ListShopThreads(ctx, cfg.ShopID)
			}
			return chatClient.ListUserThreads(ctx)
		},
		chatClient.MessagePage,
		usecase.FetchPolicy{},
	)

	adapter := socket.New(socket.Config{URL: cfg.SocketURL, Token: sess.Token})
	defer adapter.Close()

	sync := usecase.NewChatSync(adapter, cache, presence, sess.UserID, cfg.MediaBaseURL, cfg.GreetingText)
	delivery := usecase.NewDelivery(chatClient, cache, sess.UserID)

	go func() {
		<-adapter.Failed()
		fmt.Println("realtime connection lost; messages will arrive on refresh only")
	}()

	runShell(sess, sync, cache, presence, delivery, tokenStore)
}

func runShell(sess entity.Session, sync *usecase.ChatSync, cache *usecase.ChatCache, presence *usecase.PresenceStore, delivery *usecase.Delivery, tokenStore *session.Store) {
	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	var unfollow func()
	var current entity.Thread

	fmt.Printf("Logged in as %s (%s). Commands: threads, open <n>, send <text>, minimize, maximize, close, logout, quit\n", sess.Name, sess.Role)

	var threads []entity.Thread
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		cmd, arg, _ := strings.Cut(line, " ")

		switch cmd {
		case "threads":
			var err error
			threads, err = cache.Threads(ctx)
			if err != nil {
				fmt.Println(errors.UserMessage(err, "Failed to load conversations"))
				continue
			}
			for i, t := range threads {
				other := t.Counterparty(sess.UserID)
				fmt.Printf("%d. %s — %s\n", i+1, other.Name, t.LastMessage)
			}

		case "open":
			idx := 0
			fmt.Sscanf(arg, "%d", &idx)
			if idx < 1 || idx > len(threads) {
				fmt.Println("Run `threads` first and pick a listed conversation")
				continue
			}
			current = threads[idx-1]
			if unfollow != nil {
				unfollow()
			}
			stop, err := sync.Follow(current.ID)
			if err != nil {
				fmt.Println(errors.UserMessage(err, "Failed to follow conversation"))
				continue
			}
			unfollow = stop
			sync.Open(current)
			printConversation(ctx, sync, current.ID)

		case "send":
			if current.ID == "" {
				fmt.Println("Open a conversation first")
				continue
			}
			if _, err := delivery.Submit(ctx, current.ID, arg, nil); err != nil {
				fmt.Println(errors.UserMessage(err, "Failed to send message"))
				continue
			}
			printConversation(ctx, sync, current.ID)

		case "minimize":
			presence.Dispatch(usecase.Minimize{})
		case "maximize":
			presence.Dispatch(usecase.Maximize{})
		case "close":
			presence.Dispatch(usecase.CloseChat{})
		case "logout":
			if err := presence.Reset(); err != nil {
				fmt.Println(errors.UserMessage(err, "Failed to clear local state"))
			}
			tokenStore.Clear()
			return
		case "quit", "exit":
			return
		case "":
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}

func printConversation(ctx context.Context, sync *usecase.ChatSync, threadID string) {
	rendered, err := sync.Conversation(ctx, threadID)
	if err != nil {
		fmt.Println(errors.UserMessage(err, "Failed to load messages"))
		return
	}
	for _, m := range rendered {
		who := "them"
		if m.Author == usecase.AuthorSelf {
			who = "you"
		}
		body := m.Text
		if body == "" && m.ImageURL != "" {
			body = m.ImageURL
		}
		fmt.Printf("[%s] %s: %s\n", m.DisplayTime, who, body)
	}
}
