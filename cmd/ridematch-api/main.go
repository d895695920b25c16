// README: Entry point; loads config, wires services, starts HTTP server and background consumers.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"ridematch/internal/config"
	httptransport "ridematch/internal/http"
	"ridematch/internal/http/handlers"
	"ridematch/internal/infra"
	"ridematch/internal/logger"
	"ridematch/internal/maps"
	"ridematch/internal/modules/matching"
	"ridematch/internal/modules/pricing"
	"ridematch/internal/modules/profile"
	"ridematch/internal/modules/recommend"
	"ridematch/internal/modules/ride"
	"ridematch/internal/modules/routing"
	"ridematch/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	lg, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		lg.Fatal("postgres connect", zap.Error(err))
	}
	defer dbPool.Close()
	if err := infra.Migrate(ctx, dbPool); err != nil {
		lg.Fatal("migrate", zap.Error(err))
	}

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	// The broker is optional: without it status events are dropped and
	// feedback is applied inline.
	rabbit, err := infra.NewRabbit(ctx, cfg.AMQP.URL, lg)
	if err != nil {
		lg.Warn("rabbitmq unavailable, running without events", zap.Error(err))
		rabbit = nil
	} else {
		defer rabbit.Close()
	}

	var provider routing.Provider
	var geocoder handlers.Geocoder
	if cfg.Maps.APIKey != "" {
		routeSvc, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			lg.Fatal("maps routing client", zap.Error(err))
		}
		provider = routeSvc
		geoSvc, err := maps.NewGeocodeService(cfg.Maps.APIKey)
		if err != nil {
			lg.Fatal("maps geocoding client", zap.Error(err))
		}
		geocoder = geoSvc
	} else {
		lg.Warn("no maps api key, all routes use the fallback pathfinder")
	}

	estimator := routing.NewEstimator(provider, routing.NewRedisCache(redisClient, cfg.Maps.RouteCacheTTL), lg)
	pricingSvc := pricing.NewService(cfg.Pricing.Currency)
	geoIndex := matching.NewStore(redisClient)

	rideDeps := ride.Deps{
		Store:   ride.NewStore(dbPool),
		Routes:  estimator,
		Pricing: pricingSvc,
		Geo:     geoIndex,
		Log:     lg,
	}
	if rabbit != nil {
		rideDeps.Events = ride.NewEventBus(rabbit)
	}
	rideSvc := ride.NewService(rideDeps)

	profileSvc := profile.NewService(profile.NewStore(dbPool), rideSvc, lg)
	recommendSvc := recommend.NewService(profileSvc, recommend.Config{
		PeerLimit:   cfg.Recommend.PeerLimit,
		PeerTimeout: cfg.Recommend.PeerTimeout,
	}, lg)
	finder := service.NewRideFinder(profileSvc, rideSvc, geoIndex, recommendSvc, service.FinderConfig{
		RadiusKm:       cfg.Matching.RadiusKm,
		CandidateLimit: cfg.Matching.CandidateLimit,
	}, lg)

	routerDeps := httptransport.RouterDeps{
		Trips:    service.NewTripQuoter(estimator, pricingSvc),
		Rides:    rideSvc,
		Nearby:   finder,
		Finder:   finder,
		Profiles: profileSvc,
		Geocoder: geocoder,
		Log:      lg,
	}

	if rabbit != nil {
		routerDeps.Feedback = profile.NewFeedbackPublisher(rabbit)
		go profile.SubscribeFeedback(ctx, rabbit, profileSvc)
		go ride.SubscribeStatus(ctx, rabbit, func(_ context.Context, ev ride.StatusChanged) error {
			lg.Info("ride status changed",
				zap.String("ride_id", string(ev.RideID)),
				zap.String("from", string(ev.FromStatus)),
				zap.String("to", string(ev.ToStatus)),
			)
			return nil
		})
	}

	server := httptransport.NewServer(cfg.HTTP.Addr, httptransport.NewRouter(routerDeps), lg)
	if err := server.Run(ctx); err != nil {
		lg.Fatal("http server", zap.Error(err))
	}
}
