package entity

// MessageChunk is one ordered, already escaped segment of a digest.
type MessageChunk struct {
	Index int
	Total int
	Body  string
}

// DeliveryResult is the outcome of sending one chunk.
type DeliveryResult struct {
	Index int
	Err   error
}

func (r DeliveryResult) Delivered() bool {
	return r.Err == nil
}

// DeliveryReport aggregates the results of one delivery.
type DeliveryReport struct {
	Results   []DeliveryResult
	Delivered int
	Failed    int
}

func (r *DeliveryReport) Record(index int, err error) {
	r.Results = append(r.Results, DeliveryResult{Index: index, Err: err})
	if err != nil {
		r.Failed++
		return
	}
	r.Delivered++
}

// Complete reports whether every chunk went out.
func (r DeliveryReport) Complete() bool {
	return r.Failed == 0 && r.Delivered > 0
}
