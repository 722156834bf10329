// Package resilience groups the fault tolerance helpers used around every
// outbound call the service makes: embedding providers, news sources and
// storage backends.
//
//	cb := circuitbreaker.New(circuitbreaker.EmbeddingAPIConfig())
//	vecs, err := circuitbreaker.Do(cb, func() ([][]float32, error) {
//	    return client.Embed(ctx, texts)
//	})
//
//	err := retry.WithBackoff(ctx, retry.FeedFetchConfig(), func() error {
//	    return fetchOnce(ctx)
//	})
package resilience
