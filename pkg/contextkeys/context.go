package contextkeys

// Используем кастомный тип, чтобы избежать коллизий
type contextKey string

// DBContextKey - ключ, по которому в context лежит *gorm.DB открытой транзакции
const DBContextKey = contextKey("db")

// AuthContextKey - ключ для *authctx.Context (и в gin.Context, и в context.Context)
const AuthContextKey = "auth_context"
