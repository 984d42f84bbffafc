package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/phanstudios/what-the-burn/adapters/contract"
	"github.com/phanstudios/what-the-burn/adapters/events"
	"github.com/phanstudios/what-the-burn/adapters/ledger"
	"github.com/phanstudios/what-the-burn/adapters/store"
	"github.com/phanstudios/what-the-burn/adapters/wallet"
	"github.com/phanstudios/what-the-burn/core"
	"github.com/phanstudios/what-the-burn/internal/config"
	"github.com/phanstudios/what-the-burn/internal/metrics"
	"github.com/phanstudios/what-the-burn/ports"
	"github.com/phanstudios/what-the-burn/service"
)

func runBurn(log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("burn", flag.ExitOnError)
	var (
		idsFlag      = fs.String("ids", "", "comma-separated token ids to burn")
		featuredFlag = fs.Uint("featured", 0, "token id that receives the upgrade")
		nameFlag     = fs.String("name", "", "display name for the upgraded asset")
		descFlag     = fs.String("desc", "", "description for the upgraded asset")
		imageFlag    = fs.String("image", "", "path to the image attachment")
		yesFlag      = fs.Bool("yes", false, "approve wallet prompts without asking")
	)
	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}

	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to dial rpc")
	}
	defer client.Close()

	keyWallet, err := wallet.NewKeyWallet(cfg.PrivateKeyHex, big.NewInt(cfg.ChainID))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid private key")
	}
	var provider ports.WalletProvider = keyWallet
	if !*yesFlag {
		provider = wallet.NewPromptWallet(keyWallet, confirmOnTerminal)
	}

	publisher := newPublisher(cfg.RedisURL, log)
	eventPub := events.NewWatermillPublisher(publisher)
	ledgerClient := ledger.NewClient(cfg.BackendURL)

	sessions := service.NewWalletSessionManager(provider, ledgerClient, store.NewMemoryStore(), eventPub, log)
	if err := sessions.Connect(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to connect session")
	}
	if !sessions.Authenticated() {
		if err := sessions.Login(ctx); err != nil {
			log.Fatal().Err(err).Msg("login failed")
		}
	}

	gateway, err := contract.NewGateway(client, provider, cfg.NFTAddress, cfg.BurnManagerAddress, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bind contracts")
	}

	quota, err := gateway.BurnQuota(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read burn quota")
	}
	policy := core.BurnPolicy{MinBurn: int(quota), MaxBurn: int(quota)}

	req, err := buildRequest(ctx, sessions, ledgerClient, *idsFlag, uint32(*featuredFlag), *nameFlag, *descFlag, *imageFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build burn request")
	}

	if fee, err := gateway.QuoteFee(ctx); err == nil {
		eth := decimal.NewFromBigInt(fee, -18)
		fmt.Printf("Current burn fee: %s ETH (re-quoted before submission)\n", eth.String())
	}

	metrics.Register()
	orch := service.NewBurnOrchestrator(sessions, gateway, ledgerClient, eventPub, policy, log)

	attempt, err := orch.Submit(ctx, req)
	report(attempt, err)

	retried := false
	for attempt.State == core.StateSyncFailedAfterBurn {
		if *yesFlag {
			if retried {
				fmt.Printf("Record still not saved. Keep this transaction hash: %s\n", attempt.TxHash)
				return
			}
			retried = true
		} else if !confirmOnTerminal("retry saving the burn record") {
			fmt.Printf("Record not saved. Keep this transaction hash: %s\n", attempt.TxHash)
			return
		}
		if errors.Is(attempt.Err, core.ErrUnauthorized) {
			if err := sessions.Login(ctx); err != nil {
				log.Error().Err(err).Msg("re-authentication failed")
				continue
			}
		}
		attempt, err = orch.RetrySync(ctx)
		report(attempt, err)
	}
}

func report(attempt core.BurnAttempt, err error) {
	switch attempt.State {
	case core.StateSynced:
		fmt.Printf("Burn complete and recorded. Transaction: %s\n", attempt.TxHash)
	case core.StateSyncFailedAfterBurn:
		fmt.Printf("The burn succeeded on-chain (transaction %s) but the record "+
			"was not saved: %v\n", attempt.TxHash, attempt.Err)
	case core.StateAborted:
		class := core.Classify(core.StateAborted, attempt.Err)
		fmt.Printf("Burn attempt aborted (%s): %v\n", class, attempt.Err)
		for _, v := range attempt.Violations {
			fmt.Printf("  - %s\n", v.Message)
		}
	default:
		if err != nil {
			fmt.Printf("Burn attempt failed: %v\n", err)
		}
	}
}

func buildRequest(
	ctx context.Context,
	sessions *service.WalletSessionManager,
	ledgerClient ports.LedgerClient,
	idsCSV string,
	featuredID uint32,
	name, desc, imagePath string,
) (*core.BurnRequest, error) {
	credential, ok := sessions.Credential()
	if !ok {
		return nil, core.ErrNotAuthenticated
	}
	owned, err := ledgerClient.UserTokens(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("listing owned tokens: %w", err)
	}
	byID := make(map[uint32]core.NFTAsset, len(owned))
	for _, a := range owned {
		byID[a.ID] = a
	}

	var selection core.BurnSelection
	for _, raw := range strings.Split(idsCSV, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad token id %q", raw)
		}
		// Unowned ids map to a zero asset; the validator reports them
		// instead of the CLI silently dropping them.
		selection.Burn = append(selection.Burn, byID[uint32(id)])
	}
	selection.Featured = byID[featuredID]

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("reading attachment: %w", err)
	}

	return &core.BurnRequest{
		Selection:   selection,
		DisplayName: name,
		Description: desc,
		Attachment: core.Attachment{
			Name:        filepath.Base(imagePath),
			ContentType: http.DetectContentType(data),
			Data:        data,
		},
	}, nil
}

func confirmOnTerminal(action string) bool {
	fmt.Printf("The wallet wants to %s. Approve? [y/N] ", action)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

// newPublisher picks the event backend: a shared redis stream when
// configured, an in-process channel otherwise.
func newPublisher(redisURL string, log zerolog.Logger) message.Publisher {
	wmLogger := watermill.NewStdLogger(false, false)
	if redisURL == "" {
		return gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid redis url")
	}
	publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: redis.NewClient(opts),
	}, wmLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create redis publisher")
	}
	return publisher
}
