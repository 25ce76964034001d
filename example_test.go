package subword_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/hupe1980/subword"
	"github.com/hupe1980/subword/blobstore"
	"github.com/hupe1980/subword/testutil"
)

// Example_supervised trains a small classifier and predicts a label.
func Example_supervised() {
	text := testutil.NewRNG(1).SupervisedCorpus(testutil.CorpusSpec{Lines: 300, Labels: 3})

	m, err := subword.Supervised().
		Dim(16).      // Embedding size
		Epoch(20).    // Passes over the corpus
		LR(0.5).      // Initial learning rate
		Bucket(1000). // Hash buckets for n-grams
		Threads(1).   // Deterministic single worker
		Seed(42).
		TrainReader(context.Background(), strings.NewReader(text), int64(len(text)))
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	preds, err := m.Predict("c1w0 c1w1 c1w2", 1, 0)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(preds[0].Label)
	// Output: __label__c1
}

// Example_publish uploads a model and opens the live version.
func Example_publish() {
	ctx := context.Background()
	text := testutil.NewRNG(1).SupervisedCorpus(testutil.CorpusSpec{Lines: 100, Labels: 2})

	m, err := subword.Supervised().Dim(8).Bucket(100).Threads(1).
		TrainReader(ctx, strings.NewReader(text), int64(len(text)))
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	store := blobstore.NewMemoryStore()
	man, err := m.Publish(ctx, store, "classifiers/topics")
	if err != nil {
		log.Fatal(err)
	}

	live, err := subword.OpenPublished(ctx, store, "classifiers/topics")
	if err != nil {
		log.Fatal(err)
	}
	defer live.Close()

	fmt.Println(man.Version, man.Blob, live.NLabels())
	// Output: 1 classifiers/topics/model-000001.bin 2
}
