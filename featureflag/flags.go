package featureflag

type Flag string

const (
	FlagDisableSceneState                Flag = "DISABLE_SCENE_STATE"
	FlagDisableParticipantJoinBroadcast  Flag = "DISABLE_PARTICIPANT_JOIN_BROADCAST"
	FlagDisableParticipantLeaveBroadcast Flag = "DISABLE_PARTICIPANT_LEAVE_BROADCAST"
	FlagDisableElementAddBroadcast       Flag = "DISABLE_ELEMENT_ADD_BROADCAST"
	FlagDisableElementDeleteBroadcast    Flag = "DISABLE_ELEMENT_DELETE_BROADCAST"
	FlagDisableElementUpdateBoxBroadcast Flag = "DISABLE_ELEMENT_UPDATE_BOX_BROADCAST"
	FlagDisableCustomMessageBroadcast    Flag = "DISABLE_CUSTOM_MESSAGE_BROADCAST"
	FlagDisableLassoDeltaBroadcast       Flag = "DISABLE_LASSO_DELTA_BROADCAST"
	FlagDisableEmblemSetBroadcast        Flag = "DISABLE_EMBLEM_SET_BROADCAST"
	FlagDisableEmblemRemoveBroadcast     Flag = "DISABLE_EMBLEM_REMOVE_BROADCAST"
)
