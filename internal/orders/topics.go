package orders

const (
	TopicOrderPlaced = "canteen.order.placed"
)

// Partition key = order id, so all events of one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
