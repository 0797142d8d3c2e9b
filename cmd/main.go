package main

import (
	"context"
	"errors"
	"log"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"causeway/internal/app"
	"causeway/internal/config"
	"causeway/internal/documents"
	"causeway/internal/keymanager"
	"causeway/internal/ports/http"
	"causeway/internal/repository/memory"
	"causeway/internal/repository/mongodb"
	"causeway/internal/requestauth"
	"causeway/internal/signkeys"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type store interface {
	documents.Store
	requestauth.Store
	app.RequestStore
}

func main() {
	configPath := pflag.String("config", "", "path to a config file, environment variables take precedence")
	debug := pflag.Bool("debug", false, "development logging, malformed document shapes panic")
	pflag.Parse()

	logger, err := getLogger(*debug)
	if err != nil {
		log.Fatalln("setting up the logger failed: ", err)
		return
	}
	defer logger.Sync()

	if err := run(logger, *configPath); err != nil {
		logger.Error("application failed: " + err.Error())
		_ = logger.Sync()
		os.Exit(1)
	}

	logger.Info("application finished")
}

func run(logger *zap.Logger, configPath string) (err error) {
	if err := config.Load(configPath); err != nil {
		return err
	}

	logger.Info("application started", zap.String("store", config.GetStore()), zap.String("network", config.GetBitcoinNetwork()))

	net, err := signkeys.NetworkParams(config.GetBitcoinNetwork())
	if err != nil {
		return err
	}

	keys, err := loadKeys(logger)
	if err != nil {
		return err
	}

	db, closeDB, err := openStore(logger)
	if err != nil {
		return err
	}
	defer closeDB()

	docs := documents.NewService(logger, db, net)
	auth := requestauth.NewAuthenticator(logger, db, keys, requestauth.Config{
		TTL:         config.GetTokenTTL(),
		FreeQuota:   config.GetFreeQuota(),
		PricingType: config.GetPricingType(),
	})
	a := app.NewApp(logger, docs, auth, db, app.ServerInfo{
		URL:             config.GetServerURL(),
		CausewayVersion: config.Version,
		PricingType:     config.GetPricingType(),
		FreeQuota:       config.GetFreeQuota(),
		Description:     config.GetServerDescription(),
	})

	ser := http.NewServer(logger, a, config.GetPort(), config.GetRequestTimeout(), config.GetCorsOrigins())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- ser.Run()
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return errors.New("failed to run the server: " + err.Error())
	case sig := <-signals:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.GetRequestTimeout())
	defer cancel()

	err = multierr.Append(err, ser.Shutdown(ctx))
	if serr := <-serveErr; !errors.Is(serr, nethttp.ErrServerClosed) {
		err = multierr.Append(err, serr)
	}
	return err
}

func openStore(logger *zap.Logger) (store, func(), error) {
	switch config.GetStore() {
	case config.StoreMemory:
		logger.Warn("using the in-memory store, documents are lost on restart")
		return memory.NewRepository(logger), func() {}, nil

	case config.StoreMongo:
		repo, err := mongodb.NewConnection(logger, config.GetDbConnectionURI(), config.GetDatabaseName())
		if err != nil {
			return nil, nil, errors.New("failed to connect to the database: " + err.Error())
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.GetRequestTimeout())
		defer cancel()
		if err := repo.EnsureIndexes(ctx); err != nil {
			repo.Disconnect()
			return nil, nil, err
		}
		return repo, repo.Disconnect, nil

	default:
		return nil, nil, errors.New("unknown store " + config.GetStore())
	}
}

// loadKeys builds the token keyring from TOKEN_KEYRING, or from TOKEN_SECRET alone.
func loadKeys(logger *zap.Logger) (keymanager.KeyManager, error) {
	if path := config.GetTokenKeyring(); path != "" {
		return keymanager.LoadKeyring(logger, path)
	}

	secret := config.GetTokenSecret()
	if secret == "" {
		return keymanager.KeyManager{}, errors.New("no token key material, set TOKEN_KEYRING or TOKEN_SECRET")
	}
	return keymanager.NewKeyManager(logger, "default", keymanager.SigningKey{ID: "default", Secret: []byte(secret)})
}

func getLogger(debug bool) (*zap.Logger, error) {
	options := []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(zap.FatalLevel),
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	cfg.Development = debug
	if !debug {
		cfg.Level.SetLevel(zap.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.WithOptions(options...), nil
}
