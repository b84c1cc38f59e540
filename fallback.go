package smartrouter

import "context"

// dispatch sends the request to the provider and, when fallback is enabled,
// retries once on the fallback model. Fatal errors (auth, invalid request,
// canceled context) are never retried, and neither is a request that already
// ran on the fallback model. It returns the result, the model that actually
// served it, and whether the fallback hop was taken.
func (r *Router) dispatch(ctx context.Context, model string, messages []Message) (CompletionResult, string, bool, error) {
	result, err := r.provider.Complete(ctx, model, messages)
	if err == nil {
		return result, model, false, nil
	}
	r.meter.OnError(ErrorEvent{Op: OpProvider, Model: model, Err: err})

	if !r.cfg.EnableFallback || IsFatal(err) || model == r.cfg.FallbackModel {
		return CompletionResult{}, "", false, &RouterError{
			Err:      err,
			Op:       "dispatch",
			Model:    model,
			Attempts: 1,
		}
	}

	fallback := r.cfg.FallbackModel
	result, err = r.provider.Complete(ctx, fallback, messages)
	if err != nil {
		r.meter.OnError(ErrorEvent{Op: OpProvider, Model: fallback, Err: err})
		return CompletionResult{}, "", false, &RouterError{
			Err:      err,
			Op:       "dispatch",
			Model:    fallback,
			Attempts: 2,
		}
	}
	return result, fallback, true, nil
}
