package services

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// watchCollection establishes a standing change stream on a collection and
// invokes onChange once up front and again after every upstream change. The
// callback is expected to re-run its scoped query and replay the full current
// result set (not a diff) to its consumer.
//
// The returned cancel func tears the stream down; the owning component must
// call it on teardown to avoid leaking the live query.
func watchCollection(ctx context.Context, colName string, onChange func(ctx context.Context)) (func(), error) {
	col, err := collection(colName)
	if err != nil {
		return nil, err
	}

	cctx, cancel := context.WithCancel(ctx)

	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := col.Watch(cctx, mongo.Pipeline{}, opts)
	if err != nil {
		cancel()
		return nil, err
	}

	go func() {
		defer stream.Close(context.Background())

		// Initial snapshot before any change arrives
		onChange(cctx)

		for stream.Next(cctx) {
			onChange(cctx)
		}
		if err := stream.Err(); err != nil && cctx.Err() == nil {
			log.Printf("change stream on %s ended: %v", colName, err)
		}
	}()

	return cancel, nil
}
