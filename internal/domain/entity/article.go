package entity

// Article is a feed entry with its extracted body and, once summarized, its summary.
type Article struct {
	Entry   *FeedEntry
	Content string
	Summary string
}

func NewArticle(entry *FeedEntry, content string) *Article {
	return &Article{
		Entry:   entry,
		Content: content,
	}
}

// ItemStatus is the outcome of processing one source or article.
type ItemStatus string

const (
	ItemOK      ItemStatus = "ok"
	ItemSkipped ItemStatus = "skipped"
	ItemFailed  ItemStatus = "failed"
)

// ItemResult carries either a value or the reason the item was dropped.
type ItemResult[T any] struct {
	Key    string
	Status ItemStatus
	Value  T
	Err    error
}

func OK[T any](key string, v T) ItemResult[T] {
	return ItemResult[T]{Key: key, Status: ItemOK, Value: v}
}

func Skipped[T any](key string, err error) ItemResult[T] {
	return ItemResult[T]{Key: key, Status: ItemSkipped, Err: err}
}

func Failed[T any](key string, err error) ItemResult[T] {
	return ItemResult[T]{Key: key, Status: ItemFailed, Err: err}
}
