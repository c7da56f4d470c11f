package product

// v2Schema describes major version 2 of the product message. Unknown
// properties are allowed so that minor releases can add fields.
var v2Schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "version": { "type": "string" },
    "media": { "type": "string", "minLength": 1 },
    "name": { "type": "string", "minLength": 1 },
    "author": { "type": "string", "minLength": 1 },
    "genre": { "type": "string" },
    "personas": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": { "type": "string", "minLength": 1 },
          "role": { "type": "string" },
          "allegiance": { "type": "string" },
          "note": { "type": "string" }
        },
        "required": ["name"]
      }
    }
  },
  "required": ["version", "media", "name", "author"]
}`

// v1Schema describes major version 1, which predates the media/name/author
// field names.
var v1Schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "version": { "type": "string" },
    "type": { "type": "string", "minLength": 1 },
    "title": { "type": "string", "minLength": 1 },
    "creator": { "type": "string", "minLength": 1 }
  },
  "required": ["version", "type", "title", "creator"]
}`
