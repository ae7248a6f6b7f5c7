// Package chipng prepares sprite and texture images for filtering by bleeding
// the colour of opaque pixels into their fully transparent surroundings. Alpha
// is never modified, so the image looks the same while bilinear sampling and
// mipmapping no longer pull in black (or arbitrary) colour at the edges.
//
// The root package exposes a Service façade over a bounded worker pool:
//
//	srv, _ := chipng.New(chipng.WithWorkers(4))
//	_ = srv.Start(ctx)
//	defer srv.Shutdown(ctx)
//	h, _ := srv.Submit(ctx, buf, nil)
//	result, _ := h.Wait(ctx)
//
// Run processes whole directories through viant/afs, see service/batch. The
// engine itself lives in package bleed and can be used without the pool.
package chipng
