package mongodb

// bson field paths shared across the stores. Keeping them in one place makes
// positional updates greppable.
const (
	fieldID        = "_id"
	fieldTheater   = "theater"
	fieldStatus    = "status"
	fieldUpdatedAt = "updatedAt"
	fieldCreatedAt = "createdAt"

	fieldOrderList   = "orderList"
	fieldOrderListID = "orderList._id"

	fieldGatewayOrderID   = "gateway.orderId"
	fieldGatewayPaymentID = "gateway.paymentId"
	fieldGatewaySignature = "gateway.signature"

	fieldCompletedAt    = "completedAt"
	fieldVerifiedAt     = "verifiedAt"
	fieldVerificationIP = "verificationIp"
	fieldError          = "error"
)
