package badges

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefinitionsDBUnreachable(t *testing.T) {
	_, err := NewDefinitionsDB(context.Background(), "", "badgesDB", "badges")
	require.Error(t, err)

	// ping не проходит - клиент закрывается, ошибка возвращается
	_, err = NewDefinitionsDB(context.Background(), "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200", "badgesDB", "badges")
	require.Error(t, err)
}
