package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/assembler"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/config"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/engine"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/logger"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/model"
)

var (
	flagconf    string
	flagQuery   string
	flagAge     int
	flagRisk    string
	flagHorizon string
	flagTimeout time.Duration
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
	flag.StringVar(&flagQuery, "query", "", "investment question, eg: -query \"Should I buy TCS?\"")
	flag.IntVar(&flagAge, "age", 30, "investor age")
	flag.StringVar(&flagRisk, "risk", string(model.RiskModerate), "risk tolerance: conservative / moderate / aggressive")
	flag.StringVar(&flagHorizon, "horizon", string(model.HorizonLong), "investment horizon: short / medium / long")
	flag.DurationVar(&flagTimeout, "timeout", 2*time.Minute, "overall timeout")
}

func main() {
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadConfig(flagconf)
	if err != nil {
		log.Fatalf("无法加载配置文件: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("配置错误: %v", err)
	}

	// 2. 初始化日志
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	logger.Log.Info("启动投资雷达...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, flagTimeout)
	defer cancel()

	// 3. 初始化引擎
	eng, err := engine.NewEngine(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("引擎初始化失败: %v", err)
	}

	q := model.Query{
		Text: flagQuery,
		Profile: model.UserProfile{
			Age:               flagAge,
			RiskTolerance:     model.RiskTolerance(flagRisk),
			InvestmentHorizon: model.InvestmentHorizon(flagHorizon),
		},
	}

	// 4. 执行分析
	result, err := eng.Run(ctx, q)
	if err != nil {
		fmt.Fprintf(os.Stderr, "分析失败: %v\n", err)
		os.Exit(exitCode(err))
	}

	resp, err := assembler.Assemble(result)
	if err != nil {
		logger.Log.Errorf("结果组装失败: %v", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Println(string(out))
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidQuery):
		return 2
	case errors.Is(err, engine.ErrGenerationUnavailable):
		return 3
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return 130
	default:
		return 1
	}
}
