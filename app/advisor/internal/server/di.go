package server

import (
	"github.com/google/wire"

	"github.com/iWorld-y/invest_radar/app/advisor/internal/data"
	"github.com/iWorld-y/invest_radar/app/advisor/internal/events"
	"github.com/iWorld-y/invest_radar/app/advisor/internal/service"
	"github.com/iWorld-y/invest_radar/app/advisor/internal/usecase"
)

// ProviderSet 是投资顾问服务的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,
	NewRetentionJob,
	wire.Bind(new(Purger), new(*usecase.AnalysisUseCase)),

	// Engine providers
	NewAdvisorConfig,
	NewAnalyzer,
	NewExtractor,
	NewEmbedder,

	// Data providers
	data.NewData,
	data.NewUserRepo,
	data.NewAnalysisRepo,
	data.NewDocumentRepo,
	events.NewPublisher,

	// UseCase providers
	usecase.NewUserUseCase,
	usecase.NewAnalysisUseCase,
	usecase.NewDocumentUseCase,

	// Service providers
	service.NewAdvisorService,
)
