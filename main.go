package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/citylab/corridorsim/dataset"
)

var (
	// 配置信息
	mongoURI             = flag.String("mongo_uri", "", "mongo db uri")
	segmentsPathStr      = flag.String("segments", "", "road segments table [format: {fspath} or {db}.{col}]")
	intersectionsPathStr = flag.String("intersections", "", "intersections table [format: {fspath} or {db}.{col}]")
	odPathStr            = flag.String("od", "", "od demand table [format: {fspath} or {db}.{col}]")
	postgresDSN          = flag.String("postgres", "", "postgres dsn (overrides -segments/-intersections/-od)")
	demo                 = flag.Bool("demo", false, "run with a generated demo corridor network")
	demoSeed             = flag.Int64("demo.seed", 42, "seed for the demo network od table")
	zoneArea             = flag.Float64("zone-area", 0, "zone area in km2 for dispersion (0 means default)")
	httpEndpoint         = flag.String("listen", "localhost:53101", "HTTP listening address")
	logLevel             = flag.String("log-level", "info", "log level [debug, info, warn, error, fatal, panic]")

	// 性能测试
	benchmark = flag.Bool("benchmark", false, "benchmark mode")
	pprofAddr = flag.String("pprof", "localhost:53102", "pprof listening address")

	LOG_LEVELS = map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"info":  logrus.InfoLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"fatal": logrus.FatalLevel,
		"panic": logrus.PanicLevel,
	}
)

// loadTables picks the data source from the flags: demo generator,
// postgres, mongo or CSV files.
func loadTables() (*dataset.Tables, error) {
	if *demo {
		return dataset.Generate(dataset.GenerateConfig{Seed: *demoSeed}), nil
	}
	if *postgresDSN != "" {
		return dataset.LoadPostgres(context.Background(), *postgresDSN)
	}

	segPath, err := NewPath(*segmentsPathStr)
	if err != nil {
		return nil, err
	}
	interPath, err := NewPath(*intersectionsPathStr)
	if err != nil {
		return nil, err
	}
	odPath, err := NewPath(*odPathStr)
	if err != nil {
		return nil, err
	}
	if segPath == nil || interPath == nil || odPath == nil {
		logrus.Fatal("missing input: set -demo, -postgres, or all of -segments/-intersections/-od")
	}

	if segPath.File != "" && interPath.File != "" && odPath.File != "" {
		return dataset.LoadCSV(segPath.File, interPath.File, odPath.File)
	}
	if segPath.DB != "" && interPath.DB != "" && odPath.DB != "" {
		if *mongoURI == "" {
			logrus.Fatal("-mongo_uri is required for {db}.{col} table paths")
		}
		if interPath.DB != segPath.DB || odPath.DB != segPath.DB {
			logrus.Fatal("all mongo tables must live in the same database")
		}
		return dataset.LoadMongo(context.Background(), *mongoURI, dataset.MongoPath{
			DB:                segPath.DB,
			SegmentsColl:      segPath.Coll,
			IntersectionsColl: interPath.Coll,
			ODColl:            odPath.Coll,
		})
	}
	logrus.Fatal("table paths mix files and mongo collections")
	return nil, nil
}

func main() {
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	flag.Parse()
	if level, ok := LOG_LEVELS[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		logrus.Fatalf("invalid log level: %s", *logLevel)
	}

	tables, err := loadTables()
	if err != nil {
		logrus.Fatalf("failed to load input tables: %v", err)
	}
	log.Infof("loaded %d segments, %d intersections, %d od entries",
		len(tables.Segments), len(tables.Intersections), len(tables.Demand))

	metrics, err := NewCollector(nil)
	if err != nil {
		logrus.Fatalf("failed to register metrics: %v", err)
	}

	// 启动模拟服务
	server, err := NewCorridorServer(tables, *zoneArea, metrics)
	if err != nil {
		logrus.Fatalf("failed to build corridor server: %v", err)
	}

	if *pprofAddr != "" {
		// 启动pprof
		startHTTPDebugger(*pprofAddr)
	}

	if *benchmark {
		// 性能测试
		runBenchmark(server)
		return
	}

	addr := *httpEndpoint
	// 使用HTTP/2 w.o. TLS
	s := &http.Server{
		Addr:    addr,
		Handler: h2c.NewHandler(server.Handler(), &http2.Server{}),
	}

	// 优雅退出
	// 创建监听退出chan
	signalCh := make(chan os.Signal, 1)
	//监听指定信号 ctrl+c kill
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalCh
		log.Info("stopping...")
		go func() {
			<-signalCh
			os.Exit(1) // 强制结束
		}()
		s.Close()
		// 退出模拟服务
		server.Close()
		os.Exit(0)
	}()

	log.Infof("server listening at %v", s.Addr)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("failed to serve: %v", err)
	}
	time.Sleep(1 * time.Second) // 延迟等待"优雅退出"
	log.Info("corridorsim closes")
}
