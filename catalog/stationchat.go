package catalog

// Default returns the stationchat catalog in dependency order.
func Default() *Catalog {
	return MustNew(
		NewTableSpec("avatar",
			[]string{"id", "user_id", "name", "address", "attributes"},
			[]string{"id"},
			"id"),
		NewTableSpec("room",
			[]string{
				"id",
				"creator_id",
				"creator_name",
				"creator_address",
				"room_name",
				"room_topic",
				"room_password",
				"room_prefix",
				"room_address",
				"room_attributes",
				"room_max_size",
				"room_message_id",
				"created_at",
				"node_level",
			},
			[]string{"id"},
			"id"),
		NewTableSpec("room_administrator",
			[]string{"administrator_avatar_id", "room_id"},
			[]string{"administrator_avatar_id", "room_id"},
			""),
		NewTableSpec("room_moderator",
			[]string{"moderator_avatar_id", "room_id"},
			[]string{"moderator_avatar_id", "room_id"},
			""),
		NewTableSpec("room_ban",
			[]string{"banned_avatar_id", "room_id"},
			[]string{"banned_avatar_id", "room_id"},
			""),
		NewTableSpec("room_invite",
			[]string{"invited_avatar_id", "room_id"},
			[]string{"invited_avatar_id", "room_id"},
			""),
		NewTableSpec("persistent_message",
			[]string{
				"id",
				"avatar_id",
				"from_name",
				"from_address",
				"subject",
				"sent_time",
				"status",
				"folder",
				"category",
				"message",
				"oob",
			},
			[]string{"id"},
			"id"),
		NewTableSpec("friend",
			[]string{"avatar_id", "friend_avatar_id", "comment"},
			[]string{"avatar_id", "friend_avatar_id"},
			""),
		NewTableSpec("ignore",
			[]string{"avatar_id", "ignore_avatar_id"},
			[]string{"avatar_id", "ignore_avatar_id"},
			""),
		NewTableSpec("schema_version",
			[]string{"version", "applied_at"},
			[]string{"version"},
			""),
	)
}
