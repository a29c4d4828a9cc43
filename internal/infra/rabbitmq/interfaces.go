package rabbitmq

import "storefront/internal/infra"

var _ infra.EventPublisher = (*Publisher)(nil)
