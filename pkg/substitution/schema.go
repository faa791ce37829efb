package substitution

// tableSchema constrains the substitution table document before it is
// decoded into typed rules.
const tableSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version", "rules"],
  "additionalProperties": false,
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "phases": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "physio_type": {"enum": ["BIKE", "SWIM", "STRENGTH", "CROSS_TRAIN"]},
    "rules": {
      "type": "object",
      "propertyNames": {"pattern": "^[a-z][a-z0-9]*_RED(_[a-z][a-z0-9]*_RED)*$"},
      "additionalProperties": {
        "type": "object",
        "minProperties": 1,
        "additionalProperties": {"$ref": "#/$defs/entry"}
      }
    }
  },
  "$defs": {
    "entry": {
      "type": "object",
      "required": ["action"],
      "additionalProperties": false,
      "properties": {
        "action": {"enum": ["MODIFY", "SHUTDOWN"]},
        "protocol": {"type": "string"},
        "overrides": {"type": "array", "items": {"$ref": "#/$defs/override"}}
      }
    },
    "override": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "when": {"type": "string"},
        "type": {"enum": ["RUN", "BIKE", "SWIM", "STRENGTH", "CROSS_TRAIN"]},
        "max_zone": {"type": "integer", "minimum": 1, "maximum": 5},
        "max_duration_minutes": {"type": "integer", "minimum": 1}
      }
    }
  }
}`
