package main

import (
	"flag"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/citylab/corridorsim/corridor"
)

var (
	benchmarkCount = flag.Int("benchmark.count", 10000, "the random route query count for benchmark")
	benchmarkSeed  = flag.Int64("benchmark.seed", 0, "the seed for benchmark")
	benchmarkCPU   = flag.Int("benchmark.cpu", 1, "the cpu count for benchmark")
)

func runBenchmark(server *CorridorServer) {
	log.Logger.SetLevel(logrus.WarnLevel)
	// 设置随机种子
	e := rand.New(rand.NewSource(*benchmarkSeed))
	ids := server.network.IntersectionIDs()
	// 随机生成benchmarkCount个路径查询请求，每个请求的起点和终点都是随机的
	type odPair struct{ origin, destination string }
	reqs := make([]odPair, *benchmarkCount)
	for i := 0; i < *benchmarkCount; i++ {
		reqs[i] = odPair{
			origin:      ids[e.Intn(len(ids))],
			destination: ids[e.Intn(len(ids))],
		}
	}
	routes := server.network.Routes()

	// 路径查询benchmark
	start := time.Now()
	var wg sync.WaitGroup
	var success atomic.Int32
	if *benchmarkCPU == 1 {
		for _, req := range reqs {
			path, err := routes.Route(req.origin, req.destination)
			if err != nil {
				log.Error("benchmark failed, err:", err)
			}
			if len(path.Segments) > 0 {
				success.Add(1)
			}
		}
	} else {
		// 设置cpu数量
		runtime.GOMAXPROCS(*benchmarkCPU)
		wg.Add(*benchmarkCount)
		for _, req := range reqs {
			go func(req odPair) {
				defer wg.Done()
				path, err := routes.Route(req.origin, req.destination)
				if err != nil {
					log.Error("benchmark failed, err:", err)
				}
				if len(path.Segments) > 0 {
					success.Add(1)
				}
			}(req)
		}
		wg.Wait()
	}
	timeCost := time.Since(start) * time.Duration(*benchmarkCPU)

	// 单线程整体模拟benchmark
	demand := randomDemand(e, ids, 200)
	simStart := time.Now()
	server.simulator.RunSimulation("benchmark", demand)
	simCost := time.Since(simStart)

	log.Error(
		"benchmark finished", "\n",
		"count:", *benchmarkCount, "\n",
		"time:", timeCost, "\n",
		"avg:", timeCost/time.Duration(*benchmarkCount), "\n",
		"success:", success.Load(), "\n",
		"simulation:", simCost, "\n",
	)
}

func randomDemand(e *rand.Rand, ids []string, count int) []corridor.ODEntry {
	demand := make([]corridor.ODEntry, count)
	for i := range demand {
		vt := corridor.VehicleCar
		if e.Float64() < 0.3 {
			vt = corridor.VehicleTruck
		}
		demand[i] = corridor.ODEntry{
			Origin:          ids[e.Intn(len(ids))],
			Destination:     ids[e.Intn(len(ids))],
			VehiclesPerHour: 200 + e.Float64()*1800,
			VehicleType:     vt,
		}
	}
	return demand
}
