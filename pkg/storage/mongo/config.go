package mongo

import (
	"fmt"
	"net/url"
	"os"

	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultCollection = "posts"

var ErrConfParamMissing = fmt.Errorf("configuration parameter missing")

// Config describes the Mongo deployment. URI, when set, is used as is and
// Host/Port/User/Pass are ignored.
type Config struct {
	URI        string
	Host       string
	Port       string
	User       string
	Pass       string
	DBName     string
	Collection string
}

// NewConfig reads the configuration from the environment:
// ATLAS_URL or MONGO_HOST/MONGO_PORT (with optional MONGO_USER/MONGO_PASS),
// DB_NAME and COLLECTION_NAME.
func NewConfig() (*Config, error) {
	conf := new(Config)
	conf.URI = os.Getenv("ATLAS_URL")
	if conf.URI == "" {
		conf.Host = os.Getenv("MONGO_HOST")
		if conf.Host == "" {
			return nil, fmt.Errorf("%w: ATLAS_URL or MONGO_HOST", ErrConfParamMissing)
		}
		conf.Port = os.Getenv("MONGO_PORT")
		if conf.Port == "" {
			return nil, fmt.Errorf("%w: MONGO_PORT", ErrConfParamMissing)
		}
		conf.User = os.Getenv("MONGO_USER")
		conf.Pass = os.Getenv("MONGO_PASS")
	}
	conf.DBName = os.Getenv("DB_NAME")
	if conf.DBName == "" {
		return nil, fmt.Errorf("%w: DB_NAME", ErrConfParamMissing)
	}
	conf.Collection = os.Getenv("COLLECTION_NAME")
	if conf.Collection == "" {
		conf.Collection = defaultCollection
	}

	return conf, nil
}

func (c *Config) conString() string {
	if c.URI != "" {
		return c.URI
	}
	if c.User != "" && c.Pass != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%s/", url.QueryEscape(c.User), url.QueryEscape(c.Pass), c.Host, c.Port)
	}
	return fmt.Sprintf("mongodb://%s:%s/", c.Host, c.Port)
}

func (c *Config) Options() *options.ClientOptions {
	return options.Client().ApplyURI(c.conString())
}

// String hides credentials so the config can be logged.
func (c Config) String() string {
	target := c.Host + ":" + c.Port
	if c.URI != "" {
		target = "<uri>"
	}
	return fmt.Sprintf("mongo{target:%s db:%s collection:%s}", target, c.DBName, c.Collection)
}
