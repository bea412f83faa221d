package db

import "fmt"

// defaultEmbedDimension matches text-embedding-ada-002 output.
const defaultEmbedDimension = 1536

func (c Config) embedDimension() int {
	if c.EmbedDimension > 0 {
		return c.EmbedDimension
	}
	return defaultEmbedDimension
}

// schemaSQL returns the schema initialization SQL. The HNSW dimension is
// parameterized because it must match the configured embedding model.
func schemaSQL(dimension int) string {
	return fmt.Sprintf(`
    -- ==========================================================================
    -- CHUNK TABLE (document corpus)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS chunk SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS doc_name ON chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS page_no ON chunk TYPE int;
    DEFINE FIELD IF NOT EXISTS text ON chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS embedding ON chunk TYPE array<float>;
    DEFINE FIELD IF NOT EXISTS created_at ON chunk TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS chunk_doc ON chunk FIELDS doc_name;
    DEFINE INDEX IF NOT EXISTS chunk_embedding ON chunk FIELDS embedding HNSW DIMENSION %d DIST COSINE TYPE F32;

    -- ==========================================================================
    -- MESSAGE TABLE (conversation history, keyed by caller-supplied user_id)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS message SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS user_id ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS role ON message TYPE string ASSERT $value IN ["user", "assistant", "system"];
    DEFINE FIELD IF NOT EXISTS content ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS created_at ON message TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS seq ON message TYPE int DEFAULT 0;

    DEFINE INDEX IF NOT EXISTS message_user ON message FIELDS user_id;
    DEFINE INDEX IF NOT EXISTS message_user_created ON message FIELDS user_id, created_at;

    -- ==========================================================================
    -- USER TABLE (registry for the login flow; chat identity stays self-asserted)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS user SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS user_id ON user TYPE string;
    DEFINE FIELD IF NOT EXISTS name ON user TYPE string;
    DEFINE FIELD IF NOT EXISTS email ON user TYPE string ASSERT string::is::email($value);
    DEFINE FIELD IF NOT EXISTS password_hash ON user TYPE string;
    DEFINE FIELD IF NOT EXISTS created_at ON user TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS user_email ON user FIELDS email UNIQUE;
`, dimension)
}
