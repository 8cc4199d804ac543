package ingest

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/colstreamio/colstream/pkg/columnar"
	"github.com/colstreamio/colstream/pkg/ipc"
)

// Result summarizes one ingestion run.
type Result struct {
	Rows   int64
	Chunks int64
}

// Stream pipelines parsing with writing: one goroutine pulls chunks from
// the reader, one writes them, so the writer keeps its single-caller
// contract. The writer must already be started; finishing it stays with
// the caller. On error the parsed-but-unwritten tail is dropped and the
// counts cover written chunks only.
func Stream(ctx context.Context, writer *ipc.StreamWriter, reader *CSVReader) (Result, error) {
	var res Result
	chunks := make(chan *columnar.Chunk, 2)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer close(chunks)
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			chunk, err := reader.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
	group.Go(func() error {
		for chunk := range chunks {
			if err := writer.Write(chunk); err != nil {
				return err
			}
			res.Chunks++
			res.Rows += int64(chunk.Rows())
		}
		return nil
	})

	err := group.Wait()
	return res, err
}
