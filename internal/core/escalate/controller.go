package escalate

import (
	"context"
	"errors"
	"time"

	"recipe-parser/internal/core/backend"
	"recipe-parser/internal/core/cache"
	"recipe-parser/internal/core/parse"
	"recipe-parser/internal/infrastructure/config"
	"recipe-parser/internal/pkg/common"

	"go.uber.org/zap"
)

// State 升級流程的狀態
type State string

const (
	StateIdle            State = "idle"
	StateTryingHeuristic State = "trying_heuristic"
	StateTryingLocalLLM  State = "trying_local_llm"
	StateTryingCloudLLM  State = "trying_cloud_llm"
	StateSucceeded       State = "succeeded"
	StateExhaustedFailed State = "exhausted_failed"
)

// tryingStates 後端名稱對應的中間狀態
var tryingStates = map[common.BackendName]State{
	common.BackendHeuristic: StateTryingHeuristic,
	common.BackendLocalLLM:  StateTryingLocalLLM,
	common.BackendCloudLLM:  StateTryingCloudLLM,
}

// Controller 解析升級控制器
// 依序嘗試 heuristic → local LLM → cloud LLM，任一候選的信心分數
// 達到門檻就停；全部試完則取分數最高的候選
type Controller struct {
	config   *config.Config
	backends []backend.Backend
	status   *statusCache
	cache    *cache.Manager
}

// NewController 創建升級控制器
// backends 的順序即升級順序，成本由低到高
func NewController(cfg *config.Config, backends []backend.Backend, cacheMgr *cache.Manager) *Controller {
	return &Controller{
		config:   cfg,
		backends: backends,
		status:   newStatusCache(cfg.Parser.StatusTTL),
		cache:    cacheMgr,
	}
}

// runTrace 單次解析的狀態轉移紀錄
type runTrace struct {
	states []State
}

func (t *runTrace) transition(s State) {
	t.states = append(t.states, s)
}

// Parse 解析一份 OCR 結果，回傳結構化食譜與驗證結果
// 取消與逾時經由 ctx 傳入，對應的錯誤會被歸類為 Cancelled / Timeout
func (c *Controller) Parse(ctx context.Context, ocr *common.OCRResult) (*common.ParseOutcome, error) {
	outcome, _, err := c.parse(ctx, ocr)
	return outcome, err
}

// parse 實際的解析流程，回傳狀態轉移紀錄供測試檢查
func (c *Controller) parse(ctx context.Context, ocr *common.OCRResult) (*common.ParseOutcome, *runTrace, error) {
	trace := &runTrace{}
	trace.transition(StateIdle)

	// 空輸入直接失敗，不碰任何後端
	if ocr == nil || ocr.IsEmpty() {
		trace.transition(StateExhaustedFailed)
		return nil, trace, common.ErrEmptyInput
	}

	normalized := parse.Normalize(ocr.Text)
	cacheKey := cache.Key(normalized)

	// 同一份文字不重解析
	if cached, ok := c.cache.Get(ctx, cacheKey); ok {
		var outcome common.ParseOutcome
		if err := common.ParseJSON(cached, &outcome); err == nil {
			trace.transition(StateSucceeded)
			return &outcome, trace, nil
		}
		common.LogWarn("快取內容反序列化失敗，重新解析", zap.String("鍵", cacheKey))
	}

	var best *common.ParsedRecipe
	var bestBackend common.BackendName

	for _, b := range c.backends {
		if ctx.Err() != nil {
			break
		}

		st := c.status.Check(ctx, b)
		if !st.Available {
			common.LogInfo("後端不可用，跳過",
				zap.String("後端", string(b.Name())),
			)
			continue
		}

		trace.transition(tryingStates[b.Name()])

		candidate, err := c.tryBackend(ctx, b, ocr)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			c.status.MarkUnavailable(b.Name())
			continue
		}

		// 分數最高的候選勝出
		if best == nil || candidate.Confidence > best.Confidence {
			best = candidate
			bestBackend = b.Name()
		}

		// 達到門檻就不再升級
		if candidate.Confidence >= c.config.Parser.ConfidenceThreshold {
			break
		}

		common.LogInfo("候選信心不足，升級到下一後端",
			zap.String("後端", string(b.Name())),
			zap.Float64("信心分數", candidate.Confidence),
			zap.Float64("門檻", c.config.Parser.ConfidenceThreshold),
		)
	}

	// 呼叫端取消 / 逾時：即使手上已有候選也照樣中止，
	// 半途的結果不回傳、不寫快取
	if err := ctx.Err(); err != nil {
		trace.transition(StateExhaustedFailed)
		return nil, trace, classifyContextError(err)
	}

	if best == nil {
		trace.transition(StateExhaustedFailed)
		return nil, trace, common.ErrAllBackendsUnavailable
	}

	trace.transition(StateSucceeded)

	validation := parse.Validate(best)
	outcome := &common.ParseOutcome{
		Recipe:        best,
		Validation:    validation,
		Confidence:    best.Confidence,
		BackendUsed:   bestBackend,
		LowConfidence: best.Confidence < c.config.Parser.ConfidenceThreshold,
	}

	if data, err := common.ToJSON(outcome); err == nil {
		if err := c.cache.Set(ctx, cacheKey, data); err != nil {
			common.LogWarn("解析結果快取寫入失敗", zap.Error(err))
		}
	}

	common.LogInfo("解析完成",
		zap.String("後端", string(bestBackend)),
		zap.Float64("信心分數", best.Confidence),
		zap.Bool("低信心", outcome.LowConfidence),
	)

	return outcome, trace, nil
}

// tryBackend 呼叫單一後端，暫態錯誤時重試
func (c *Controller) tryBackend(ctx context.Context, b backend.Backend, ocr *common.OCRResult) (*common.ParsedRecipe, error) {
	var lastErr error
	attempts := 1 + c.config.Parser.MaxRetries

	for i := 0; i < attempts; i++ {
		callCtx := ctx
		cancel := func() {}
		if timeout := b.Timeout(); timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, timeout)
		}

		start := time.Now()
		candidate, err := b.TryParse(callCtx, ocr)
		cancel()
		common.LogBackendCall(string(b.Name()), time.Since(start), err, common.RequestIDFromContext(ctx))

		if err == nil {
			return candidate, nil
		}
		lastErr = err

		// 外層 ctx 已死就別再打了
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !backend.IsTransient(err) {
			break
		}
		common.LogWarn("後端暫態失敗，重試",
			zap.String("後端", string(b.Name())),
			zap.Int("嘗試次數", i+1),
			zap.Error(err),
		)
	}
	return nil, lastErr
}

// BackendStatuses 回傳各後端目前的可用性（健康檢查端點用）
// 未曾探測過的後端會在此時被探測一次
func (c *Controller) BackendStatuses(ctx context.Context) []BackendStatus {
	statuses := make([]BackendStatus, 0, len(c.backends))
	for _, b := range c.backends {
		statuses = append(statuses, c.status.Check(ctx, b))
	}
	return statuses
}

// classifyContextError 把 ctx 錯誤歸類為取消或逾時
func classifyContextError(err error) *common.CustomError {
	if errors.Is(err, context.Canceled) {
		return common.ErrCancelled
	}
	return common.ErrTimeout
}
